package scan

import (
	"io"
	"log/slog"
)

// Option configures a scan using the functional options pattern.
type Option func(*config)

type config struct {
	recursive       bool
	skipDirs        map[string]struct{}
	followSymlinks  bool
	maxDepth        int
	continueOnError bool
	logger          *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func defaultConfig() *config {
	return &config{
		recursive: true,
		skipDirs:  make(map[string]struct{}),
		logger:    discardLogger,
	}
}

// WithRecursive controls whether subdirectories are visited. Default: true.
func WithRecursive(recursive bool) Option {
	return func(c *config) {
		c.recursive = recursive
	}
}

// WithSkipDirs excludes subdirectories with the given base names.
// The root itself is never skipped.
func WithSkipDirs(names ...string) Option {
	return func(c *config) {
		for _, n := range names {
			c.skipDirs[n] = struct{}{}
		}
	}
}

// WithFollowSymlinks descends into symlinked directories. Default: false.
// Each resolved directory is visited at most once, so cycles terminate.
// Symlinks to regular files are always collected.
func WithFollowSymlinks(follow bool) Option {
	return func(c *config) {
		c.followSymlinks = follow
	}
}

// WithMaxDepth limits how many levels below the root are visited.
// The root is depth 0; n <= 0 means unlimited.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = max(n, 0)
	}
}

// WithContinueOnError logs and skips unreadable subdirectories instead of
// aborting the scan. An unreadable root is always an error.
func WithContinueOnError(cont bool) Option {
	return func(c *config) {
		c.continueOnError = cont
	}
}

// WithLogger sets the logger. Each visited directory is logged at Info.
// If nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = discardLogger
		}
		c.logger = logger
	}
}
