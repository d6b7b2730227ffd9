package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var matchFlags matcherFlags

var matchCmd = &cobra.Command{
	Use:   "match [FILES...]",
	Short: "Print the substring each pattern matched, per line",
	Long: `Evaluate every pattern against every input line and print one row per
line. Each row holds, in pattern order, the leftmost substring the pattern
matched, or null when it did not match.

Rows are output as JSON Lines by default.

Examples:
  # Two patterns against a file
  anyutils match -e '\s5\d\d\s' -e '\d+ms' access.log

  # Patterns from a YAML file, read from stdin
  cat access.log | anyutils match -p patterns.yaml --format pretty

  # Lookarounds need the backtracking engine
  anyutils match --engine backtrack --timeout 10ms -e '(?<=id=)\d+' app.log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(cmd.Context(), &matchFlags, args, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	matchFlags.register(matchCmd)
	rootCmd.AddCommand(matchCmd)
}

func runMatch(ctx context.Context, f *matcherFlags, args []string, stdin io.Reader, out io.Writer) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	m, labels, err := buildMatcher(f)
	if err != nil {
		return err
	}

	lines, err := readInputs(args, stdin)
	if err != nil {
		return err
	}

	rows, err := m.MatchAll(ctx, texts(lines))
	if err != nil {
		return err
	}

	for i, l := range lines {
		if err := OutputRecord(f.format, labels, newRecord(l.File, l.Num, l.Text, rows[i]), out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	logger.Debug("match finished", "lines", len(lines), "patterns", len(labels))
	return nil
}
