package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Matcher evaluates a fixed, pre-compiled list of patterns against texts.
//
// Matcher is safe for concurrent use by multiple goroutines. Each call runs
// its own bounded worker pool, which is fully drained before the call returns.
type Matcher struct {
	cfg      *config
	exprs    []string
	patterns []searcher
}

// Compile compiles every pattern before any matching takes place.
// If any pattern is invalid, Compile returns all failures joined with
// errors.Join; each is a *CompileError.
//
// An empty pattern list is valid: every row will be empty.
func Compile(patterns []string, opts ...Option) (*Matcher, error) {
	cfg := applyOptions(opts)

	compiled := make([]searcher, len(patterns))
	var errs []error
	for i, expr := range patterns {
		var (
			s   searcher
			err error
		)
		if cfg.cache != nil {
			s, err = cfg.cache.get(cacheKey{engine: cfg.engine, expr: expr, timeout: cfg.evalTimeout})
		} else {
			s, err = compile(cfg.engine, expr, cfg.evalTimeout)
		}
		if err != nil {
			errs = append(errs, &CompileError{Index: i, Expr: expr, Engine: cfg.engine, Err: err})
			continue
		}
		compiled[i] = s
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	exprs := make([]string, len(patterns))
	copy(exprs, patterns)

	cfg.logger.Debug("compiled patterns", "count", len(patterns), "engine", cfg.engine.String())
	return &Matcher{cfg: cfg, exprs: exprs, patterns: compiled}, nil
}

// Patterns returns a copy of the source expressions in order.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.exprs))
	copy(out, m.exprs)
	return out
}

// Engine returns the engine the patterns were compiled with.
func (m *Matcher) Engine() Engine {
	return m.cfg.engine
}

// MatchAll evaluates every pattern against every text concurrently.
//
// The result has one Row per text, in input order, and each Row has one
// Result per pattern, in pattern order, regardless of completion order.
//
// The first evaluation failure cancels the remaining work and is returned as
// an *EvalError, unless the Matcher was built with WithCaptureErrors(true).
// Cancelling ctx aborts the call with the context error.
func (m *Matcher) MatchAll(ctx context.Context, texts []string) (rows []Row, err error) {
	start := time.Now()
	defer func() { m.cfg.metrics.observeCall("match_all", start, err) }()

	rows = make([]Row, len(texts))
	for i := range rows {
		rows[i] = make(Row, len(m.patterns))
	}
	if len(texts) == 0 || len(m.patterns) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.workers)

dispatch:
	for i, text := range texts {
		for j, s := range m.patterns {
			// Stop handing out work once a task has failed or ctx is done.
			if gctx.Err() != nil {
				break dispatch
			}
			g.Go(func() error {
				res, err := m.eval(gctx, s, text)
				m.cfg.metrics.observeEval(res.Matched, err)
				if err == nil {
					rows[i][j] = res
					return nil
				}
				if isContextErr(err) {
					return err
				}
				evalErr := &EvalError{Text: i, Pattern: j, Err: err}
				if m.cfg.captureErrors {
					m.cfg.logger.Debug("captured evaluation error", "text", i, "pattern", j, "error", err)
					rows[i][j] = Result{Err: evalErr}
					return nil
				}
				return evalErr
			})
		}
	}

	if err := g.Wait(); err != nil {
		m.cfg.logger.Debug("match aborted", "error", err)
		return nil, err
	}
	// Dispatch may have stopped early without any task reporting it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.cfg.logger.Debug("match complete",
		"texts", len(texts),
		"patterns", len(m.patterns),
		"elapsed", time.Since(start))
	return rows, nil
}

// eval runs one (text, pattern) evaluation, converting panics to errors.
func (m *Matcher) eval(ctx context.Context, s searcher, text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	v, ok, err := s.search(text)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v, Matched: ok}, nil
}

// Filter returns the texts whose row satisfies pred, paired with their input
// index, in input order. pred runs on the calling goroutine, so a panic in
// pred propagates to the caller.
func (m *Matcher) Filter(ctx context.Context, texts []string, pred Predicate) ([]Hit, error) {
	if pred == nil {
		return nil, ErrNilPredicate
	}
	return m.filter(ctx, "filter", texts, func(_ context.Context, _ int, _ string, row Row) (bool, error) {
		return pred(row), nil
	})
}

// FilterSelect is Filter with a fallible Selector. The first selector error
// aborts the call and is returned as a *PredicateError.
func (m *Matcher) FilterSelect(ctx context.Context, texts []string, sel Selector) ([]Hit, error) {
	if sel == nil {
		return nil, ErrNilPredicate
	}
	return m.filter(ctx, "filter_select", texts, sel.Select)
}

func (m *Matcher) filter(ctx context.Context, op string, texts []string, sel SelectorFunc) (hits []Hit, err error) {
	start := time.Now()
	defer func() { m.cfg.metrics.observeCall(op, start, err) }()

	rows, err := m.MatchAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	hits = make([]Hit, 0)
	for i, row := range rows {
		keep, err := sel(ctx, i, texts[i], row)
		if err != nil {
			return nil, &PredicateError{Index: i, Err: err}
		}
		if keep {
			hits = append(hits, Hit{Index: i, Text: texts[i]})
		}
	}

	m.cfg.logger.Debug("filter complete", "texts", len(texts), "hits", len(hits))
	return hits, nil
}

// MatchAll compiles patterns and evaluates them against texts.
// See Compile and Matcher.MatchAll.
func MatchAll(ctx context.Context, texts, patterns []string, opts ...Option) ([]Row, error) {
	m, err := Compile(patterns, opts...)
	if err != nil {
		return nil, err
	}
	return m.MatchAll(ctx, texts)
}

// Filter compiles patterns and returns the texts whose row satisfies pred.
// See Compile and Matcher.Filter.
func Filter(ctx context.Context, texts, patterns []string, pred Predicate, opts ...Option) ([]Hit, error) {
	if pred == nil {
		return nil, ErrNilPredicate
	}
	m, err := Compile(patterns, opts...)
	if err != nil {
		return nil, err
	}
	return m.Filter(ctx, texts, pred)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
