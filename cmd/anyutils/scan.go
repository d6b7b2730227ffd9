package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anyutils/anyutils-go/pkg/anyutils/scan"
)

type scanOptions struct {
	recursive      bool
	skipDirs       []string
	followSymlinks bool
	maxDepth       int
	newest         bool
}

var scanFlags scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan DIR",
	Short: "List the files beneath a directory, breadth-first",
	Long: `List the regular files beneath a directory, one path per line, in
breadth-first order. If DIR is a file, its directory is listed.

Examples:
  anyutils scan ./logs
  anyutils scan --recursive=false ./logs
  anyutils scan --skip-dir .git,node_modules .
  anyutils scan --newest ./logs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd.Context(), &scanFlags, args[0], cmd.OutOrStdout())
	},
}

func init() {
	scanCmd.Flags().BoolVarP(&scanFlags.recursive, "recursive", "r", true,
		"Descend into subdirectories")
	scanCmd.Flags().StringSliceVar(&scanFlags.skipDirs, "skip-dir", nil,
		"Directory names to skip (comma-separated)")
	scanCmd.Flags().BoolVar(&scanFlags.followSymlinks, "follow-symlinks", false,
		"Descend into symlinked directories")
	scanCmd.Flags().IntVar(&scanFlags.maxDepth, "max-depth", 0,
		"Maximum directory depth below DIR (0 = unlimited)")
	scanCmd.Flags().BoolVar(&scanFlags.newest, "newest", false,
		"Print only the most recently modified file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(ctx context.Context, f *scanOptions, dir string, out io.Writer) error {
	files, err := scan.Folder(ctx, dir,
		scan.WithRecursive(f.recursive),
		scan.WithSkipDirs(f.skipDirs...),
		scan.WithFollowSymlinks(f.followSymlinks),
		scan.WithMaxDepth(f.maxDepth),
		scan.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if f.newest {
		file, err := scan.Newest(files)
		if err != nil {
			return err
		}
		files = []scan.File{file}
	}

	for _, path := range scan.Paths(files) {
		if _, err := fmt.Fprintln(out, path); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}
