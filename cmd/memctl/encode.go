package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/pkg/b64"
	"github.com/joshuapare/memkit/pkg/fileutil"
)

var (
	encodeOutput string
)

func init() {
	cmd := newEncodeCmd()
	cmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Base64-encode a file",
		Long: `The encode command reads a file into the selected allocator and
writes its base64 encoding.

Example:
  memctl encode image.png
  memctl encode image.png -o image.b64 --allocator arena`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(args)
		},
	}
	return cmd
}

func runEncode(args []string) error {
	path := args[0]
	return withSession(func(s *session) error {
		data, err := fileutil.ReadBinFile(path, s.a)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer s.a.Free(data, len(data))
		printVerbose("Read %d bytes from %s\n", len(data), path)

		out, err := b64.Encode(s.a, data)
		if err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}
		defer s.a.Free(out, len(out))

		if encodeOutput != "" {
			if err := fileutil.WriteFile(encodeOutput, out); err != nil {
				return fmt.Errorf("failed to write %s: %w", encodeOutput, err)
			}
			printInfo("Wrote %d bytes to %s\n", len(out), encodeOutput)
			return nil
		}
		if _, err := os.Stdout.Write(out); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout)
		return nil
	})
}
