package pattern_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match/pattern"
)

func TestLoad_Valid(t *testing.T) {
	pf, err := pattern.Load("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, pf.Version)
	assert.Empty(t, pf.Engine)
	require.Len(t, pf.Patterns, 2)
	assert.Equal(t, []string{"server_error", "slow_request"}, pf.IDs())
	assert.Equal(t, []string{`\s5\d\d\s`, `\b\d{4,}ms\b`}, pf.Exprs())
}

func TestLoad_InvalidRegex(t *testing.T) {
	// Load does not compile expressions.
	pf, err := pattern.Load("testdata/invalid_regex.yaml")
	require.NoError(t, err)
	assert.Len(t, pf.Patterns, 3)
}

func TestLoad_MissingFields(t *testing.T) {
	_, err := pattern.Load("testdata/missing_fields.yaml")
	require.Error(t, err)
	var patErr *pattern.PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Equal(t, "regex", patErr.Field)
	assert.Contains(t, err.Error(), "regex is required")
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := pattern.Load("testdata/unsupported_version.yaml")
	require.Error(t, err)
	var valErr *pattern.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestLoad_BadEngine(t *testing.T) {
	_, err := pattern.Load("testdata/bad_engine.yaml")
	require.Error(t, err)
	var valErr *pattern.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "engine", valErr.Field)
}

func TestLoad_DuplicateID(t *testing.T) {
	_, err := pattern.Load("testdata/duplicate_id.yaml")
	require.Error(t, err)
	var patErr *pattern.PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Equal(t, 1, patErr.Index)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestLoad_PatternTooLong(t *testing.T) {
	_, err := pattern.Load("testdata/pattern_too_long.yaml")
	require.Error(t, err)
	var patErr *pattern.PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Contains(t, err.Error(), "pattern too long")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := pattern.Load("testdata/nonexistent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read pattern file")
	assert.NotContains(t, err.Error(), "nonexistent.yaml", "path must not leak into the error")
}

func TestLoad_RejectsDirectory(t *testing.T) {
	_, err := pattern.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regular file")
}

func TestLoad_RejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test requires Unix")
	}
	target, err := filepath.Abs("testdata/valid.yaml")
	require.NoError(t, err)
	link := filepath.Join(t.TempDir(), "link.yaml")
	require.NoError(t, os.Symlink(target, link))

	_, err = pattern.Load(link)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regular file")
}

func TestLoad_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.yaml")
	require.NoError(t, os.WriteFile(path, make([]byte, pattern.MaxPatternFileSize+1), 0o644))

	_, err := pattern.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadBytes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name: "valid",
			data: "version: 1\npatterns:\n  - id: a\n    regex: 'a+'\n",
		},
		{
			name: "backtrack engine",
			data: "version: 1\nengine: backtrack\npatterns:\n  - id: a\n    regex: 'a(?=b)'\n",
		},
		{
			name:    "empty",
			data:    "",
			wantErr: "empty",
		},
		{
			name:    "malformed yaml",
			data:    "version: [1\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "no patterns",
			data:    "version: 1\npatterns: []\n",
			wantErr: "at least one pattern is required",
		},
		{
			name:    "missing id",
			data:    "version: 1\npatterns:\n  - regex: 'a'\n",
			wantErr: "id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := pattern.LoadBytes([]byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, pf)
		})
	}
}

func TestValidate_TooManyPatterns(t *testing.T) {
	var b strings.Builder
	b.WriteString("version: 1\npatterns:\n")
	for i := 0; i <= pattern.MaxPatternCount; i++ {
		fmt.Fprintf(&b, "  - id: p%d\n    regex: 'x'\n", i)
	}

	_, err := pattern.LoadBytes([]byte(b.String()))
	require.Error(t, err)
	var valErr *pattern.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, err.Error(), "too many patterns")
}

func TestNewMatcher_Valid(t *testing.T) {
	m, pf, err := pattern.NewMatcherFromFile("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, pf.Exprs(), m.Patterns())
	assert.Equal(t, match.EngineRE2, m.Engine())

	rows, err := m.MatchAll(context.Background(), []string{
		"GET /a 503 12ms",
		"GET /b 200 2500ms",
	})
	require.NoError(t, err)
	assert.True(t, rows[0][0].Matched)
	assert.False(t, rows[0][1].Matched)
	assert.False(t, rows[1][0].Matched)
	assert.Equal(t, "2500ms", rows[1][1].Value)
}

func TestNewMatcher_FileEngine(t *testing.T) {
	m, _, err := pattern.NewMatcherFromFile("testdata/backtrack.yaml")
	require.NoError(t, err)
	assert.Equal(t, match.EngineBacktrack, m.Engine())

	rows, err := m.MatchAll(context.Background(), []string{"GET the the /api", "GET /health"})
	require.NoError(t, err)
	assert.Equal(t, "the the", rows[0][0].Value)
	assert.True(t, rows[0][1].Matched)
	assert.False(t, rows[1][1].Matched)
}

func TestNewMatcher_NamedGroupBacktrack(t *testing.T) {
	data := []byte(`version: 1
engine: backtrack
patterns:
  - id: error_line
    regex: 'ERROR (?P<code>\d+)'
`)
	pf, err := pattern.LoadBytes(data)
	require.NoError(t, err)

	m, err := pattern.NewMatcher(pf)
	require.NoError(t, err)
	assert.Equal(t, match.EngineBacktrack, m.Engine())

	rows, err := m.MatchAll(context.Background(), []string{"12:00 ERROR 503 upstream", "12:01 INFO ok"})
	require.NoError(t, err)
	assert.Equal(t, "ERROR 503", rows[0][0].Value)
	assert.False(t, rows[1][0].Matched)
}

func TestNewMatcher_OptionOverridesFileEngine(t *testing.T) {
	pf, err := pattern.Load("testdata/valid.yaml")
	require.NoError(t, err)

	m, err := pattern.NewMatcher(pf, match.WithEngine(match.EngineBacktrack))
	require.NoError(t, err)
	assert.Equal(t, match.EngineBacktrack, m.Engine())
}

func TestNewMatcher_InvalidRegexReportsAll(t *testing.T) {
	pf, err := pattern.Load("testdata/invalid_regex.yaml")
	require.NoError(t, err)

	_, err = pattern.NewMatcher(pf)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "expected a joined error")
	errs := joined.Unwrap()
	require.Len(t, errs, 2)

	var first *pattern.PatternError
	require.True(t, errors.As(errs[0], &first))
	assert.Equal(t, "broken_group", first.ID)
	assert.Equal(t, 1, first.Index)

	var ce *match.CompileError
	require.True(t, errors.As(errs[1], &ce))
	assert.Equal(t, 2, ce.Index)
	assert.Contains(t, err.Error(), `pattern "broken_class"`)
}

func TestNewMatcherFromFile_LoadError(t *testing.T) {
	_, _, err := pattern.NewMatcherFromFile("testdata/duplicate_id.yaml")
	var patErr *pattern.PatternError
	assert.True(t, errors.As(err, &patErr))
}
