package match_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

func TestMatchAll_Shape(t *testing.T) {
	texts := []string{"alpha", "beta", "gamma", "delta"}
	patterns := []string{`a`, `e`, `z`}

	rows, err := match.MatchAll(context.Background(), texts, patterns)
	require.NoError(t, err)
	require.Len(t, rows, len(texts))
	for i, row := range rows {
		assert.Len(t, row, len(patterns), "row %d", i)
	}
}

func TestMatchAll_ReturnsMatchedSubstring(t *testing.T) {
	rows, err := match.MatchAll(context.Background(),
		[]string{"hello world", "error 404 not found"},
		[]string{`o w`, `\d+`},
	)
	require.NoError(t, err)

	v, ok := rows[0][0].Get()
	assert.True(t, ok)
	assert.Equal(t, "o w", v)

	v, ok = rows[1][1].Get()
	assert.True(t, ok)
	assert.Equal(t, "404", v)
}

func TestMatchAll_AbsentIsNotEmptyString(t *testing.T) {
	rows, err := match.MatchAll(context.Background(),
		[]string{"abc"},
		[]string{`z`, `x*`},
	)
	require.NoError(t, err)

	// No match: absent.
	assert.False(t, rows[0][0].Matched)
	assert.Equal(t, "<none>", rows[0][0].String())

	// Empty match: present, with an empty value.
	assert.True(t, rows[0][1].Matched)
	assert.Equal(t, "", rows[0][1].Value)
}

func TestMatchAll_SearchesAnywhere(t *testing.T) {
	rows, err := match.MatchAll(context.Background(),
		[]string{"prefix-needle-suffix"},
		[]string{`needle`, `^needle`},
	)
	require.NoError(t, err)
	assert.True(t, rows[0][0].Matched)
	assert.False(t, rows[0][1].Matched)
}

func TestMatchAll_Empty(t *testing.T) {
	ctx := context.Background()

	rows, err := match.MatchAll(ctx, nil, []string{`a`})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = match.MatchAll(ctx, []string{"a", "b"}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0])
	assert.Empty(t, rows[1])
}

func TestMatchAll_Idempotent(t *testing.T) {
	texts := []string{"foo=1", "bar=22", "baz", "qux=333"}
	patterns := []string{`\w+`, `=\d+`, `^b`}

	m, err := match.Compile(patterns)
	require.NoError(t, err)

	first, err := m.MatchAll(context.Background(), texts)
	require.NoError(t, err)
	second, err := m.MatchAll(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMatchAll_LargeProductPreservesCorrelation(t *testing.T) {
	const (
		numTexts    = 1000
		numPatterns = 10
	)

	texts := make([]string, numTexts)
	for i := range texts {
		texts[i] = fmt.Sprintf("item-%04d", i)
	}
	patterns := make([]string, numPatterns)
	for j := range patterns {
		// Matches exactly the texts whose last digit is j.
		patterns[j] = strconv.Itoa(j) + `$`
	}

	rows, err := match.MatchAll(context.Background(), texts, patterns, match.WithWorkers(8))
	require.NoError(t, err)
	require.Len(t, rows, numTexts)

	for i, row := range rows {
		require.Len(t, row, numPatterns)
		for j, res := range row {
			want := i%10 == j
			if res.Matched != want {
				t.Fatalf("rows[%d][%d].Matched = %v, want %v", i, j, res.Matched, want)
			}
			if want && res.Value != strconv.Itoa(j) {
				t.Fatalf("rows[%d][%d].Value = %q, want %q", i, j, res.Value, strconv.Itoa(j))
			}
		}
	}
}

func TestMatchAll_SingleWorker(t *testing.T) {
	texts := []string{"a1", "b2", "c3"}
	rows, err := match.MatchAll(context.Background(), texts, []string{`\d`, `[a-z]`}, match.WithWorkers(1))
	require.NoError(t, err)
	for i, row := range rows {
		assert.Equal(t, texts[i][1:], row[0].Value)
		assert.Equal(t, texts[i][:1], row[1].Value)
	}
}

func TestCompile_InvalidPattern(t *testing.T) {
	_, err := match.Compile([]string{`ok`, `a(`, `fine`})
	require.Error(t, err)

	var ce *match.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Index)
	assert.Equal(t, `a(`, ce.Expr)
	assert.Contains(t, err.Error(), "invalid regular expression")
}

func TestCompile_ReportsEveryInvalidPattern(t *testing.T) {
	_, err := match.Compile([]string{`[`, `ok`, `(?P<x`})
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "pattern[0]")
	assert.Contains(t, msg, "pattern[2]")
	assert.NotContains(t, msg, "pattern[1]")
}

func TestMatchAll_InvalidPatternFailsWholeCall(t *testing.T) {
	rows, err := match.MatchAll(context.Background(),
		[]string{"abc", "def"},
		[]string{`a`, `b`, `*bad`},
	)
	require.Error(t, err)
	assert.Nil(t, rows)

	var ce *match.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 2, ce.Index)
}

func TestMatchAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := match.MatchAll(ctx, []string{"a", "b"}, []string{`a`})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rows)

	rows, err = match.MatchAll(ctx, nil, []string{`a`})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rows)
}

func TestMatchAll_BacktrackEngine(t *testing.T) {
	patterns := []string{`foo(?=bar)`, `(\w)\1`}

	_, err := match.Compile(patterns)
	require.Error(t, err, "RE2 rejects lookarounds and backreferences")

	rows, err := match.MatchAll(context.Background(),
		[]string{"foobar", "foobaz", "hello"},
		patterns,
		match.WithEngine(match.EngineBacktrack),
	)
	require.NoError(t, err)

	assert.Equal(t, "foo", rows[0][0].Value)
	assert.False(t, rows[1][0].Matched)
	assert.Equal(t, "ll", rows[2][1].Value)
}

func TestMatchAll_BacktrackDialect(t *testing.T) {
	patterns := []string{`ERROR (?P<code>\d+)`, `(?<=id=)\d+`, `(\w)\1`}

	rows, err := match.MatchAll(context.Background(),
		[]string{"ERROR 42 id=7 ok"},
		patterns,
		match.WithEngine(match.EngineBacktrack),
	)
	require.NoError(t, err)

	assert.Equal(t, "ERROR 42", rows[0][0].Value)
	assert.Equal(t, "7", rows[0][1].Value)
	assert.Equal(t, "RR", rows[0][2].Value)
}

func TestMatchAll_InvalidUTF8ValueIsSubstring(t *testing.T) {
	texts := []string{"a\xffb", "\xfe\xffx\xe2\x82\xacy", "h\u00e9llo \xff w\u00f6rld"}
	patterns := []string{`a.b`, `x.y`, `w.rld`, `.`}

	for _, engine := range []match.Engine{match.EngineRE2, match.EngineBacktrack} {
		t.Run(engine.String(), func(t *testing.T) {
			rows, err := match.MatchAll(context.Background(), texts, patterns, match.WithEngine(engine))
			require.NoError(t, err)

			for i, row := range rows {
				for j, res := range row {
					if res.Matched {
						assert.True(t, strings.Contains(texts[i], res.Value),
							"row %d col %d: %q not in %q", i, j, res.Value, texts[i])
					}
				}
			}
			assert.Equal(t, "a\xffb", rows[0][0].Value)
			assert.Equal(t, "x\xe2\x82\xacy", rows[1][1].Value)
			assert.Equal(t, "w\u00f6rld", rows[2][2].Value)
		})
	}
}

func TestMatchAll_EvalTimeout(t *testing.T) {
	evil := strings.Repeat("a", 40) + "!"
	opts := []match.Option{
		match.WithEngine(match.EngineBacktrack),
		match.WithEvalTimeout(50 * time.Millisecond),
	}

	_, err := match.MatchAll(context.Background(), []string{evil}, []string{`(a+)+$`}, opts...)
	require.Error(t, err)
	assert.ErrorIs(t, err, match.ErrEvalTimeout)

	var evalErr *match.EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 0, evalErr.Text)
	assert.Equal(t, 0, evalErr.Pattern)
}

func TestMatchAll_CaptureErrors(t *testing.T) {
	evil := strings.Repeat("a", 40) + "!"
	rows, err := match.MatchAll(context.Background(),
		[]string{evil, "aaa"},
		[]string{`(a+)+$`},
		match.WithEngine(match.EngineBacktrack),
		match.WithEvalTimeout(50*time.Millisecond),
		match.WithCaptureErrors(true),
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.False(t, rows[0][0].Matched)
	assert.ErrorIs(t, rows[0][0].Err, match.ErrEvalTimeout)
	assert.ErrorIs(t, rows[0].Err(), match.ErrEvalTimeout)

	assert.NoError(t, rows[1][0].Err)
	assert.Equal(t, "aaa", rows[1][0].Value)
}

func TestFilter_PreservesInputOrder(t *testing.T) {
	texts := []string{"ab", "xy", "ac"}
	pred := func(row match.Row) bool { return row[0].Matched }

	hits, err := match.Filter(context.Background(), texts, []string{`a.`}, pred)
	require.NoError(t, err)
	assert.Equal(t, []match.Hit{
		{Index: 0, Text: "ab"},
		{Index: 2, Text: "ac"},
	}, hits)
}

func TestFilter_NoHits(t *testing.T) {
	hits, err := match.Filter(context.Background(), []string{"a", "b"}, []string{`z`}, match.Any())
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestFilter_NilPredicate(t *testing.T) {
	_, err := match.Filter(context.Background(), []string{"a"}, []string{`a`}, nil)
	assert.ErrorIs(t, err, match.ErrNilPredicate)

	m, err := match.Compile([]string{`a`})
	require.NoError(t, err)
	_, err = m.Filter(context.Background(), []string{"a"}, nil)
	assert.ErrorIs(t, err, match.ErrNilPredicate)
	_, err = m.FilterSelect(context.Background(), []string{"a"}, nil)
	assert.ErrorIs(t, err, match.ErrNilPredicate)
}

func TestFilter_PredicatePanicPropagates(t *testing.T) {
	m, err := match.Compile([]string{`a`})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = m.Filter(context.Background(), []string{"a"}, func(match.Row) bool {
			panic("boom")
		})
	})
}

func TestFilterSelect_Error(t *testing.T) {
	m, err := match.Compile([]string{`\d`})
	require.NoError(t, err)

	errBad := errors.New("bad row")
	sel := match.SelectorFunc(func(_ context.Context, i int, text string, row match.Row) (bool, error) {
		if text == "two" {
			return false, errBad
		}
		return row[0].Matched, nil
	})

	_, err = m.FilterSelect(context.Background(), []string{"1", "two", "3"}, sel)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)

	var pe *match.PredicateError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Index)
}

func TestFilterSelect_ReceivesIndexAndText(t *testing.T) {
	m, err := match.Compile([]string{`x`})
	require.NoError(t, err)

	var seen []string
	sel := match.SelectorFunc(func(_ context.Context, i int, text string, _ match.Row) (bool, error) {
		seen = append(seen, fmt.Sprintf("%d:%s", i, text))
		return i%2 == 0, nil
	})

	hits, err := m.FilterSelect(context.Background(), []string{"a", "b", "c"}, sel)
	require.NoError(t, err)
	assert.Equal(t, []string{"0:a", "1:b", "2:c"}, seen)
	assert.Equal(t, []match.Hit{{Index: 0, Text: "a"}, {Index: 2, Text: "c"}}, hits)
}

func TestMatcher_Patterns(t *testing.T) {
	src := []string{`a`, `b`}
	m, err := match.Compile(src, match.WithEngine(match.EngineBacktrack))
	require.NoError(t, err)

	got := m.Patterns()
	assert.Equal(t, src, got)
	got[0] = "mutated"
	assert.Equal(t, `a`, m.Patterns()[0])
	assert.Equal(t, match.EngineBacktrack, m.Engine())
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		name    string
		want    match.Engine
		wantErr bool
	}{
		{"", match.EngineRE2, false},
		{"re2", match.EngineRE2, false},
		{"RE2", match.EngineRE2, false},
		{"backtrack", match.EngineBacktrack, false},
		{" regexp2 ", match.EngineBacktrack, false},
		{"pcre", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := match.ParseEngine(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, match.ErrUnknownEngine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	row := match.Row{{Value: "ab", Matched: true}, {}, {Value: "", Matched: true}}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["ab", null, ""]`, string(data))
}

func TestRow_Helpers(t *testing.T) {
	row := match.Row{{Value: "x", Matched: true}, {}, {Value: "y", Matched: true}}
	assert.Equal(t, 2, row.Count())
	assert.NoError(t, row.Err())

	vals := row.Values()
	require.Len(t, vals, 3)
	require.NotNil(t, vals[0])
	assert.Equal(t, "x", *vals[0])
	assert.Nil(t, vals[1])
	assert.Equal(t, "y", *vals[2])
}
