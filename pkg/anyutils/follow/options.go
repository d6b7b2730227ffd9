package follow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

// ReplayMode specifies how to handle lines already in the file.
type ReplayMode int

const (
	// ReplayNone only delivers new lines (default, tail -f behavior).
	ReplayNone ReplayMode = iota
	// ReplayFromStart reads from the beginning of the file.
	ReplayFromStart
	// ReplayLastN reads the last N non-empty lines before following.
	ReplayLastN
)

// DefaultMaxReplayLastN is the largest N accepted by WithReplayLastN.
const DefaultMaxReplayLastN = 10000

// DefaultBatchSize is the maximum number of lines matched per MatchAll call.
const DefaultBatchSize = 256

// Option configures a Watcher using the functional options pattern.
type Option func(*config)

type config struct {
	file               string
	dir                string
	pollInterval       time.Duration
	poll               bool
	waitForFiles       bool
	replay             ReplayMode
	lastN              int
	maxReplayBytes     int
	maxReplayLineBytes int
	batchSize          int
	selector           match.Selector
	logger             *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func defaultConfig() *config {
	return &config{
		pollInterval:       2 * time.Second,
		maxReplayBytes:     10 * 1024 * 1024,
		maxReplayLineBytes: 512 * 1024,
		batchSize:          DefaultBatchSize,
		logger:             discardLogger,
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) validate() error {
	if (c.file == "") == (c.dir == "") {
		return ErrNoTarget
	}
	if c.replay == ReplayLastN && (c.lastN < 0 || c.lastN > DefaultMaxReplayLastN) {
		return fmt.Errorf("replay LastN must be in [0, %d], got %d", DefaultMaxReplayLastN, c.lastN)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.maxReplayBytes < 0 {
		return fmt.Errorf("maxReplayBytes must be non-negative, got %d", c.maxReplayBytes)
	}
	if c.maxReplayLineBytes < 0 {
		return fmt.Errorf("maxReplayLineBytes must be non-negative, got %d", c.maxReplayLineBytes)
	}
	return nil
}

// WithFile follows a single file.
func WithFile(path string) Option {
	return func(c *config) {
		c.file = path
	}
}

// WithDir follows the most recently modified file directly inside dir and
// switches to a newer file when one appears.
func WithDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithPollInterval sets how often the directory is checked for a newer file.
// Default: 2 seconds.
func WithPollInterval(interval time.Duration) Option {
	return func(c *config) {
		c.pollInterval = interval
	}
}

// WithPolling detects appends by polling instead of filesystem notifications.
func WithPolling(poll bool) Option {
	return func(c *config) {
		c.poll = poll
	}
}

// WithWaitForFiles waits for a file to appear in an empty directory instead
// of failing with ErrNoFiles.
func WithWaitForFiles(wait bool) Option {
	return func(c *config) {
		c.waitForFiles = wait
	}
}

// WithReplayFromStart reads the whole file before following it.
func WithReplayFromStart() Option {
	return func(c *config) {
		c.replay = ReplayFromStart
	}
}

// WithReplayLastN reads the last n non-empty lines before following.
func WithReplayLastN(n int) Option {
	return func(c *config) {
		c.replay = ReplayLastN
		c.lastN = n
	}
}

// WithMaxReplayBytes limits the bytes read by WithReplayLastN. 0 is unlimited.
// Default: 10MB.
func WithMaxReplayBytes(n int) Option {
	return func(c *config) {
		c.maxReplayBytes = n
	}
}

// WithMaxReplayLineBytes limits a single replayed line. 0 is unlimited.
// Default: 512KB.
func WithMaxReplayLineBytes(n int) Option {
	return func(c *config) {
		c.maxReplayLineBytes = n
	}
}

// WithBatchSize bounds how many pending lines are matched together.
// n <= 0 restores DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultBatchSize
		}
		c.batchSize = n
	}
}

// WithSelector keeps only lines accepted by sel. Default: every line.
func WithSelector(sel match.Selector) Option {
	return func(c *config) {
		c.selector = sel
	}
}

// WithPredicate keeps only lines whose row satisfies pred.
func WithPredicate(pred match.Predicate) Option {
	return func(c *config) {
		if pred == nil {
			c.selector = nil
			return
		}
		c.selector = match.SelectorFunc(func(_ context.Context, _ int, _ string, row match.Row) (bool, error) {
			return pred(row), nil
		})
	}
}

// WithLogger sets a logger for debug output. If nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = discardLogger
		}
		c.logger = logger
	}
}
