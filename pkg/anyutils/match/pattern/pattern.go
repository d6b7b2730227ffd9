// Package pattern loads named regular expressions from YAML pattern files
// and compiles them into a match.Matcher.
package pattern

// PatternFile represents the structure of a YAML pattern file.
//
// Example YAML file:
//
//	version: 1
//	engine: backtrack
//	patterns:
//	  - id: server_error
//	    regex: '\s5\d\d\s'
//	  - id: slow_request
//	    regex: '\b\d{4,}ms\b'
type PatternFile struct {
	// Version is the pattern file format version. Currently only version 1 is supported.
	Version int `yaml:"version"`

	// Engine names the regular expression engine ("re2" or "backtrack").
	// Empty selects re2.
	Engine string `yaml:"engine,omitempty"`

	// Patterns is the list of pattern definitions, in evaluation order.
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern is a single named regular expression.
type Pattern struct {
	// ID is a unique identifier for this pattern (e.g., "server_error").
	ID string `yaml:"id"`

	// Regex is the expression searched for anywhere in each text.
	Regex string `yaml:"regex"`
}

// Exprs returns the regular expressions in file order.
func (pf *PatternFile) Exprs() []string {
	out := make([]string, len(pf.Patterns))
	for i, p := range pf.Patterns {
		out[i] = p.Regex
	}
	return out
}

// IDs returns the pattern identifiers in file order.
// IDs()[j] names column j of every row produced by a matcher built from pf.
func (pf *PatternFile) IDs() []string {
	out := make([]string, len(pf.Patterns))
	for i, p := range pf.Patterns {
		out[i] = p.ID
	}
	return out
}
