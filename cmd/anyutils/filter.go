package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anyutils/anyutils-go/pkg/anyutils/scan"
)

type filterOptions struct {
	matcherFlags
	selectFlags

	dir       string
	recursive bool
	skipDirs  []string
}

var filterFlags filterOptions

var filterCmd = &cobra.Command{
	Use:   "filter [FILES...]",
	Short: "Print the lines whose matches satisfy a predicate",
	Long: `Evaluate every pattern against every input line and print the lines
whose row satisfies the selected predicate, with their file and line number.

Examples:
  # Lines where any pattern matched (like grep -e ... -e ...)
  anyutils filter -e ERROR -e WARN app.log

  # Lines where every pattern matched
  anyutils filter --mode all -e '^GET' -e '\s5\d\d\s' access.log

  # Lines where pattern 0 matched and nothing else is required
  anyutils filter -p patterns.yaml --mode any --require 0 access.log

  # Every file under a directory, final decision by a plugin
  anyutils filter --dir ./logs --recursive -e ERR --plugin keep.wasm`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilter(cmd.Context(), &filterFlags, args, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	filterFlags.matcherFlags.register(filterCmd)
	filterFlags.selectFlags.register(filterCmd)
	filterCmd.Flags().StringVarP(&filterFlags.dir, "dir", "d", "",
		"Also read every file in this directory")
	filterCmd.Flags().BoolVarP(&filterFlags.recursive, "recursive", "r", false,
		"Descend into subdirectories of --dir")
	filterCmd.Flags().StringSliceVar(&filterFlags.skipDirs, "skip-dir", nil,
		"Directory names to skip under --dir (comma-separated)")
	_ = filterCmd.MarkFlagDirname("dir")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(ctx context.Context, f *filterOptions, args []string, stdin io.Reader, out io.Writer) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	m, labels, err := buildMatcher(&f.matcherFlags)
	if err != nil {
		return err
	}

	sel, cleanup, err := buildSelector(ctx, &f.selectFlags, len(labels))
	defer cleanup()
	if err != nil {
		return err
	}

	paths := args
	if f.dir != "" {
		files, err := scan.Folder(ctx, f.dir,
			scan.WithRecursive(f.recursive),
			scan.WithSkipDirs(f.skipDirs...),
			scan.WithContinueOnError(true),
			scan.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		paths = append(paths, scan.Paths(files)...)
		if len(paths) == 0 {
			logger.Info("no files to filter", "dir", f.dir)
			return nil
		}
	}

	lines, err := readInputs(paths, stdin)
	if err != nil {
		return err
	}

	hits, err := m.FilterSelect(ctx, texts(lines), sel)
	if err != nil {
		return err
	}

	for _, h := range hits {
		l := lines[h.Index]
		if err := OutputRecord(f.format, labels, Record{File: l.File, Line: l.Num, Text: h.Text}, out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	logger.Debug("filter finished", "lines", len(lines), "hits", len(hits))
	return nil
}
