package match

import "context"

// Predicate reports whether a text should be kept, given its result row.
type Predicate func(Row) bool

// Selector is the fallible form of Predicate. It also receives the text and
// its input index, which lets it consult state outside the row.
type Selector interface {
	Select(ctx context.Context, index int, text string, row Row) (bool, error)
}

// SelectorFunc is an adapter to allow ordinary functions to be used as Selectors.
type SelectorFunc func(ctx context.Context, index int, text string, row Row) (bool, error)

// Select implements the Selector interface.
func (f SelectorFunc) Select(ctx context.Context, index int, text string, row Row) (bool, error) {
	return f(ctx, index, text, row)
}

// Any keeps rows where at least one pattern matched.
func Any() Predicate {
	return func(r Row) bool {
		for _, res := range r {
			if res.Matched {
				return true
			}
		}
		return false
	}
}

// All keeps rows where every pattern matched. An empty row is kept.
func All() Predicate {
	return func(r Row) bool {
		for _, res := range r {
			if !res.Matched {
				return false
			}
		}
		return true
	}
}

// None keeps rows where no pattern matched.
func None() Predicate {
	return Not(Any())
}

// Matched keeps rows where the pattern at index j matched.
// Out-of-range indices never match.
func Matched(j int) Predicate {
	return func(r Row) bool {
		return j >= 0 && j < len(r) && r[j].Matched
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(r Row) bool {
		return !p(r)
	}
}

// And keeps rows satisfying every predicate. With no predicates it keeps all rows.
func And(ps ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Or keeps rows satisfying at least one predicate.
func Or(ps ...Predicate) Predicate {
	return func(r Row) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}

var _ Selector = SelectorFunc(nil)
