package match

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNilPredicate is returned when Filter is called without a predicate.
	ErrNilPredicate = errors.New("predicate is nil")

	// ErrEvalTimeout indicates a single evaluation exceeded its deadline.
	ErrEvalTimeout = errors.New("evaluation timed out")

	// ErrWorkerPanic indicates an evaluation panicked.
	ErrWorkerPanic = errors.New("evaluation panicked")

	// ErrUnknownEngine is returned for an unrecognized engine name.
	ErrUnknownEngine = errors.New("unknown regex engine")
)

// CompileError reports a pattern that failed to compile.
// Compile returns all of them joined with errors.Join.
type CompileError struct {
	Index  int    // 0-based position in the pattern list
	Expr   string // the offending expression
	Engine Engine
	Err    error // underlying compile error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pattern[%d] %q: invalid regular expression (%s): %v", e.Index, e.Expr, e.Engine, e.Err)
}

// Unwrap returns the underlying compile error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// EvalError reports a failure while evaluating one (text, pattern) pair.
type EvalError struct {
	Text    int // index of the text
	Pattern int // index of the pattern
	Err     error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating pattern[%d] against text[%d]: %v", e.Pattern, e.Text, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// PredicateError reports a Selector failure for the text at Index.
type PredicateError struct {
	Index int
	Err   error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate failed for text[%d]: %v", e.Index, e.Err)
}

func (e *PredicateError) Unwrap() error {
	return e.Err
}
