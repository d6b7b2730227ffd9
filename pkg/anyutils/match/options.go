package match

import (
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Option configures a Matcher using the functional options pattern.
type Option func(*config)

// config holds internal configuration for a Matcher.
type config struct {
	workers       int
	engine        Engine
	evalTimeout   time.Duration
	captureErrors bool
	logger        *slog.Logger
	metrics       *Metrics
	cache         *Cache
}

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// DefaultWorkers returns the default worker pool size: NumCPU+4, capped at 32.
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

func defaultConfig() *config {
	return &config{
		workers: DefaultWorkers(),
		engine:  EngineRE2,
		logger:  discardLogger,
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

// WithWorkers bounds the number of concurrent evaluations.
// n <= 0 restores the default (see DefaultWorkers).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultWorkers()
		}
		c.workers = n
	}
}

// WithEngine selects the regex engine. Default: EngineRE2.
func WithEngine(e Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

// WithEvalTimeout bounds a single evaluation. Only EngineBacktrack can be
// interrupted mid-match; RE2 evaluations are linear in the input.
// Zero disables the deadline.
func WithEvalTimeout(d time.Duration) Option {
	return func(c *config) {
		c.evalTimeout = d
	}
}

// WithCaptureErrors records evaluation failures in the failing Result's Err
// field instead of aborting the whole call. Context cancellation still aborts.
func WithCaptureErrors(capture bool) Option {
	return func(c *config) {
		c.captureErrors = capture
	}
}

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = discardLogger
		}
		c.logger = logger
	}
}

// WithMetrics records call and evaluation metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithCache compiles patterns through a shared LRU cache.
func WithCache(cache *Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}
