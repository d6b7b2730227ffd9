package pattern

import (
	"errors"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

// NewMatcher compiles the patterns of pf in file order.
//
// The file's engine is applied first, so an explicit match.WithEngine in
// opts takes precedence. Every invalid expression is reported as a
// *PatternError wrapping the *match.CompileError; failures are joined.
func NewMatcher(pf *PatternFile, opts ...match.Option) (*match.Matcher, error) {
	if err := pf.Validate(); err != nil {
		return nil, err
	}

	// Validate has already checked the engine name.
	engine, _ := match.ParseEngine(pf.Engine)
	all := make([]match.Option, 0, len(opts)+1)
	all = append(all, match.WithEngine(engine))
	all = append(all, opts...)

	m, err := match.Compile(pf.Exprs(), all...)
	if err == nil {
		return m, nil
	}

	var errs []error
	for _, e := range unwrapJoined(err) {
		var ce *match.CompileError
		if !errors.As(e, &ce) {
			errs = append(errs, e)
			continue
		}
		errs = append(errs, &PatternError{
			Index:   ce.Index,
			ID:      pf.Patterns[ce.Index].ID,
			Field:   "regex",
			Message: "invalid regex: " + ce.Err.Error(),
			Cause:   ce,
		})
	}
	return nil, errors.Join(errs...)
}

// NewMatcherFromFile loads the pattern file at path and compiles it.
func NewMatcherFromFile(path string, opts ...match.Option) (*match.Matcher, *PatternFile, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := NewMatcher(pf, opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, pf, nil
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
