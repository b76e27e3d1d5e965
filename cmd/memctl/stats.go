package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/pkg/fileutil"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file>...",
		Short: "Load files and report allocator usage",
		Long: `The stats command reads every file into the selected allocator,
reports what the allocator holds, then releases the files in reverse order.

Example:
  memctl stats a.txt b.txt --allocator arena
  memctl stats *.log --allocator recording --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
	return cmd
}

type fileStat struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// AllocStats is what the stats command reports.
type AllocStats struct {
	Allocator  string            `json:"allocator"`
	Files      []fileStat        `json:"files"`
	TotalBytes int               `json:"total_bytes"`
	GoodBytes  int               `json:"good_bytes"`
	Live       int               `json:"live_allocations,omitempty"`
	LiveBytes  int               `json:"live_bytes,omitempty"`
	Calls      int64             `json:"calls,omitempty"`
	Arena      *alloc.ArenaStats `json:"arena,omitempty"`
}

func runStats(args []string) error {
	return withSession(func(s *session) error {
		var loaded [][]byte
		defer func() {
			for i := len(loaded) - 1; i >= 0; i-- {
				s.a.Free(loaded[i], fileutil.BufSize(len(loaded[i])))
			}
		}()

		st := AllocStats{Allocator: s.name}
		for _, path := range args {
			b, err := fileutil.ReadFile(path, s.a)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			loaded = append(loaded, b)
			printVerbose("Loaded %s (%d bytes)\n", path, len(b))

			st.Files = append(st.Files, fileStat{Path: path, Size: len(b)})
			st.TotalBytes += len(b)
			st.GoodBytes += s.a.GoodSize(fileutil.BufSize(len(b)))
		}

		switch {
		case s.arena != nil:
			as := s.arena.Stats()
			st.Arena = &as
		case s.rec != nil:
			st.Live = s.rec.Live()
			st.LiveBytes = s.rec.LiveBytes()
		case s.tst != nil:
			st.Live = s.tst.Live()
			st.Calls = s.tst.Calls()
		}

		if jsonOut {
			return printJSON(st)
		}
		printStats(st)
		return nil
	})
}

func printStats(st AllocStats) {
	printInfo("Allocator: %s\n", st.Allocator)
	for _, f := range st.Files {
		printInfo("  %-40s %10d bytes\n", f.Path, f.Size)
	}
	printInfo("Total: %d bytes (%d granted, %s)\n",
		st.TotalBytes, st.GoodBytes, humanize.IBytes(uint64(st.GoodBytes)))
	if st.Arena != nil {
		printInfo("Arena: %d blocks, %d/%d bytes used (%s reserved), %d big allocations (%s)\n",
			st.Arena.BlockCount, st.Arena.Used, st.Arena.Capacity,
			humanize.IBytes(uint64(st.Arena.Capacity)+uint64(st.Arena.BigUsed)),
			st.Arena.BigCount, humanize.IBytes(uint64(st.Arena.BigUsed)))
	}
	if st.Live > 0 {
		printInfo("Live allocations: %d\n", st.Live)
	}
	if st.LiveBytes > 0 {
		printInfo("Live bytes: %d\n", st.LiveBytes)
	}
	if st.Calls > 0 {
		printInfo("Allocating calls: %d\n", st.Calls)
	}
}
