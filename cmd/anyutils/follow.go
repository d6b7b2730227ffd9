package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/anyutils/anyutils-go/pkg/anyutils/follow"
)

type followOptions struct {
	matcherFlags
	selectFlags

	dir          string
	fromStart    bool
	replayLast   int
	poll         bool
	pollInterval time.Duration
	wait         bool
}

var followFlags followOptions

var followCmd = &cobra.Command{
	Use:   "follow [FILE]",
	Short: "Follow a file and print new lines that pass the filter",
	Long: `Follow a file as it grows (like tail -f) and print each appended line
whose row satisfies the selected predicate.

With --dir, the most recently modified file in the directory is followed,
switching to newer files as they appear.

Examples:
  # New server errors in an access log
  anyutils follow -e '\s5\d\d\s' access.log

  # Replay the whole file first
  anyutils follow --from-start -e ERROR app.log

  # Replay the last 100 lines, then follow the newest file in a directory
  anyutils follow --dir ./logs --replay-last 100 -p patterns.yaml

  # Pipe to jq
  anyutils follow -e 'id=(\d+)' app.log | jq -r .row[0]`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFollow(cmd.Context(), &followFlags, args, cmd.OutOrStdout())
	},
}

func init() {
	followFlags.matcherFlags.register(followCmd)
	followFlags.selectFlags.register(followCmd)
	fs := followCmd.Flags()
	fs.StringVarP(&followFlags.dir, "dir", "d", "",
		"Follow the newest file in this directory instead of FILE")
	fs.BoolVar(&followFlags.fromStart, "from-start", false,
		"Read the file from the beginning before following")
	fs.IntVar(&followFlags.replayLast, "replay-last", 0,
		"Replay the last N lines before following (0 = disabled)")
	fs.BoolVar(&followFlags.poll, "poll", false,
		"Poll for changes instead of using file system notifications")
	fs.DurationVar(&followFlags.pollInterval, "poll-interval", 2*time.Second,
		"How often to look for a newer file with --dir")
	fs.BoolVar(&followFlags.wait, "wait", false,
		"Wait for a file to appear in --dir")
	_ = followCmd.MarkFlagDirname("dir")
	followCmd.MarkFlagsMutuallyExclusive("from-start", "replay-last")
	rootCmd.AddCommand(followCmd)
}

func (f *followOptions) watchOptions(args []string) ([]follow.Option, error) {
	switch {
	case len(args) == 1 && f.dir != "":
		return nil, fmt.Errorf("use either FILE or --dir, not both")
	case len(args) == 0 && f.dir == "":
		return nil, fmt.Errorf("a FILE or --dir is required")
	}

	opts := []follow.Option{
		follow.WithPolling(f.poll),
		follow.WithPollInterval(f.pollInterval),
		follow.WithWaitForFiles(f.wait),
		follow.WithLogger(logger),
	}
	if f.dir != "" {
		opts = append(opts, follow.WithDir(f.dir))
	} else {
		opts = append(opts, follow.WithFile(args[0]))
	}
	switch {
	case f.fromStart:
		opts = append(opts, follow.WithReplayFromStart())
	case f.replayLast > 0:
		opts = append(opts, follow.WithReplayLastN(f.replayLast))
	}
	return opts, nil
}

func runFollow(ctx context.Context, f *followOptions, args []string, out io.Writer) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	opts, err := f.watchOptions(args)
	if err != nil {
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
	opts = append(opts, follow.WithSelector(sel))

	// Create watcher (validates options)
	watcher, err := follow.NewWatcher(m, opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	// Output loop. The watcher closes both channels when it stops; the last
	// error explains a stop that was not requested.
	var lastErr error
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return lastErr
			}
			if err := OutputRecord(f.format, labels, newRecord(ev.Path, ev.Line, ev.Text, ev.Row), out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			lastErr = err
			logger.Warn("follow error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
