package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/internal/logger"
)

var (
	// Global flags
	verbose       bool
	quiet         bool
	jsonOut       bool
	allocatorName string
	failAt        int64
	blockSize     int
	useMmap       bool
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Run file operations through memkit allocators",
	Long: `memctl reads, encodes and decodes files through a selectable memkit
allocator, reporting what the allocator did. Instrumented allocators
(recording, testing) fail the command if anything is left allocated.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&allocatorName, "allocator", "a", "recording", "Allocator: heap, arena, recording, testing, null")
	rootCmd.PersistentFlags().
		Int64Var(&failAt, "fail-at", 0, "Testing allocator: fail call N (N>0) or every call from |N| on (N<0)")
	rootCmd.PersistentFlags().IntVar(&blockSize, "block-size", 0, "Arena block size in bytes (0 = default)")
	rootCmd.PersistentFlags().BoolVar(&useMmap, "mmap", false, "Back allocations with anonymous mmap")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	return logger.Init(logger.Options{
		Enabled: verbose,
		Writer:  os.Stderr,
		Level:   slog.LevelDebug,
		JSON:    jsonOut,
	})
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
