package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Engine selects the regular expression implementation.
type Engine int

const (
	// EngineRE2 uses the standard library's RE2 engine. Matching runs in
	// time linear in the input, so no evaluation deadline is needed.
	EngineRE2 Engine = iota

	// EngineBacktrack uses a backtracking engine supporting lookarounds and
	// backreferences. Evaluations honor WithEvalTimeout.
	EngineBacktrack
)

func (e Engine) String() string {
	switch e {
	case EngineRE2:
		return "re2"
	case EngineBacktrack:
		return "backtrack"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// ParseEngine converts an engine name ("re2" or "backtrack") to an Engine.
// The empty string selects EngineRE2.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "re2":
		return EngineRE2, nil
	case "backtrack", "regexp2":
		return EngineBacktrack, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// searcher finds the leftmost match of a compiled pattern anywhere in text.
type searcher interface {
	search(text string) (string, bool, error)
}

// compile builds a searcher for expr. timeout only applies to EngineBacktrack.
func compile(engine Engine, expr string, timeout time.Duration) (searcher, error) {
	switch engine {
	case EngineRE2:
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		return re2Searcher{re: re}, nil
	case EngineBacktrack:
		// RE2 mode accepts Python-style (?P<name>...) groups.
		re, err := regexp2.Compile(expr, regexp2.RE2)
		if err != nil {
			return nil, err
		}
		if timeout > 0 {
			re.MatchTimeout = timeout
		}
		return backtrackSearcher{re: re}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}
}

type re2Searcher struct {
	re *regexp.Regexp
}

func (s re2Searcher) search(text string) (string, bool, error) {
	// FindStringIndex distinguishes an empty match from no match.
	loc := s.re.FindStringIndex(text)
	if loc == nil {
		return "", false, nil
	}
	return text[loc[0]:loc[1]], true, nil
}

type backtrackSearcher struct {
	re *regexp2.Regexp
}

func (s backtrackSearcher) search(text string) (string, bool, error) {
	m, err := s.re.FindStringMatch(text)
	if err != nil {
		if isTimeout(err) {
			return "", false, fmt.Errorf("%w: %v", ErrEvalTimeout, err)
		}
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	start, end := byteSpan(text, m.Index, m.Length)
	return text[start:end], true, nil
}

// byteSpan converts a rune offset and length, as reported by regexp2, to
// byte offsets in text. Each invalid UTF-8 byte counts as one rune.
func byteSpan(text string, index, length int) (start, end int) {
	runes := 0
	for i := 0; i <= len(text); {
		if runes == index {
			start = i
		}
		if runes == index+length {
			return start, i
		}
		if i == len(text) {
			break
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		runes++
	}
	return start, len(text)
}

// isTimeout reports whether err is regexp2's match timeout error.
// regexp2 does not export a sentinel for it.
func isTimeout(err error) bool {
	return err != nil && !errors.Is(err, ErrEvalTimeout) && strings.Contains(err.Error(), "match timeout")
}
