package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/pkg/b64"
	"github.com/joshuapare/memkit/pkg/fileutil"
)

var (
	decodeOutput string
)

func init() {
	cmd := newDecodeCmd()
	cmd.Flags().StringVarP(&decodeOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a base64 file",
		Long: `The decode command reads base64 text (UTF-8 or UTF-16) into the
selected allocator and writes the decoded bytes. Line breaks are ignored.

Example:
  memctl decode image.b64 -o image.png
  memctl decode image.b64 --allocator testing --fail-at 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args)
		},
	}
	return cmd
}

func runDecode(args []string) error {
	path := args[0]
	return withSession(func(s *session) error {
		text, err := fileutil.ReadText(path, s.a)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		defer s.a.Free(text, fileutil.BufSize(len(text)))

		out, err := b64.Decode(s.a, text)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		defer s.a.Free(out, len(out))
		printVerbose("Decoded %d bytes into %d\n", len(text), len(out))

		if decodeOutput != "" {
			if err := fileutil.WriteFile(decodeOutput, out); err != nil {
				return fmt.Errorf("failed to write %s: %w", decodeOutput, err)
			}
			printInfo("Wrote %d bytes to %s\n", len(out), decodeOutput)
			return nil
		}
		_, err = os.Stdout.Write(out)
		return err
	})
}
