package main

import (
	"context"
	"fmt"

	"github.com/anyutils/anyutils-go/internal/plugin"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match/pattern"
)

// buildMatcher compiles the pattern file, if any, followed by the --regexp
// expressions. It returns the matcher and one label per pattern: the id from
// the file, or "regexpN" for the Nth --regexp.
func buildMatcher(f *matcherFlags) (*match.Matcher, []string, error) {
	pf := &pattern.PatternFile{Version: pattern.SupportedVersion}
	if f.patternFile != "" {
		loaded, err := pattern.Load(f.patternFile)
		if err != nil {
			// Error from pattern package is already sanitized (no path)
			return nil, nil, fmt.Errorf("pattern file: %w", err)
		}
		pf = loaded
	}
	for i, expr := range f.exprs {
		pf.Patterns = append(pf.Patterns, pattern.Pattern{
			ID:    fmt.Sprintf("regexp%d", i+1),
			Regex: expr,
		})
	}

	opts := []match.Option{
		match.WithLogger(logger),
		match.WithMetrics(metrics),
		match.WithCaptureErrors(f.captureErrors),
	}
	if f.engine.set {
		opts = append(opts, match.WithEngine(f.engine.engine))
	}
	if f.workers > 0 {
		opts = append(opts, match.WithWorkers(f.workers))
	}
	if f.timeout > 0 {
		opts = append(opts, match.WithEvalTimeout(f.timeout))
	}

	m, err := pattern.NewMatcher(pf, opts...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("patterns compiled", "count", len(pf.Patterns), "engine", m.Engine())
	return m, pf.IDs(), nil
}

// buildSelector builds the row selector for filter and follow.
// Returns a cleanup function that must be called to release resources (use defer).
// The cleanup function is always non-nil, even on error.
func buildSelector(ctx context.Context, f *selectFlags, numPatterns int) (match.Selector, func(), error) {
	noop := func() {}

	newPred, ok := ValidModes[f.mode.mode]
	if !ok {
		return nil, noop, fmt.Errorf("invalid mode %q", f.mode.mode)
	}
	preds := []match.Predicate{newPred()}
	for _, j := range f.require {
		if j < 0 || j >= numPatterns {
			return nil, noop, fmt.Errorf("--require %d out of range [0, %d)", j, numPatterns)
		}
		preds = append(preds, match.Matched(j))
	}
	pred := match.And(preds...)

	if f.plugin == "" {
		return match.SelectorFunc(func(_ context.Context, _ int, _ string, row match.Row) (bool, error) {
			return pred(row), nil
		}), noop, nil
	}

	p, err := plugin.Load(ctx, f.plugin, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("plugin: %w", err)
	}
	if f.pluginTimeout > 0 {
		p.SetTimeout(f.pluginTimeout)
	}

	// The plugin only sees rows that already satisfy the predicate.
	sel := match.SelectorFunc(func(ctx context.Context, i int, text string, row match.Row) (bool, error) {
		if !pred(row) {
			return false, nil
		}
		return p.Select(ctx, i, text, row)
	})
	return sel, func() { p.Close() }, nil
}
