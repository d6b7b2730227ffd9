package match

import "encoding/json"

// Result is the outcome of evaluating one pattern against one text.
//
// A Result is either a match carrying the matched substring, or absent.
// The matched substring may itself be empty (e.g. the pattern `a*` against
// "xyz"), so callers must check Matched rather than comparing Value to "".
type Result struct {
	// Value is the matched substring. Only meaningful when Matched is true.
	Value string

	// Matched reports whether the pattern was found in the text.
	Matched bool

	// Err is set only when the Matcher runs with WithCaptureErrors(true)
	// and the evaluation for this slot failed. Matched is false in that case.
	Err error
}

// Get returns the matched substring and whether there was a match.
func (r Result) Get() (string, bool) {
	return r.Value, r.Matched
}

// String returns the matched substring, or "<none>" when absent.
func (r Result) String() string {
	if !r.Matched {
		return "<none>"
	}
	return r.Value
}

// MarshalJSON encodes a match as its substring and an absent result as null.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Matched {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Row holds the results for one text, one per pattern, in pattern order.
type Row []Result

// Count returns the number of patterns that matched.
func (r Row) Count() int {
	n := 0
	for _, res := range r {
		if res.Matched {
			n++
		}
	}
	return n
}

// Err returns the first captured evaluation error in the row, if any.
func (r Row) Err() error {
	for _, res := range r {
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

// Values returns the row as optional strings: nil for absent results.
func (r Row) Values() []*string {
	out := make([]*string, len(r))
	for i := range r {
		if r[i].Matched {
			v := r[i].Value
			out[i] = &v
		}
	}
	return out
}

// Hit is a text selected by Filter, with its position in the input.
type Hit struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
