package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollConfig(fromStart bool) Config {
	cfg := DefaultConfig()
	cfg.Poll = true
	cfg.FromStart = fromStart
	return cfg
}

func nextLine(t *testing.T, tl *Tailer) Line {
	t.Helper()
	select {
	case l, ok := <-tl.Lines():
		require.True(t, ok, "lines channel closed")
		return l
	case err := <-tl.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for line")
	}
	return Line{}
}

func TestTailer_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("first\r\nsecond\n"), 0o644))

	tl, err := New(context.Background(), path, pollConfig(true))
	require.NoError(t, err)
	defer tl.Stop()

	assert.Equal(t, Line{Text: "first", Num: 1}, nextLine(t, tl))
	assert.Equal(t, Line{Text: "second", Num: 2}, nextLine(t, tl))
}

func TestTailer_FollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	tl, err := New(context.Background(), path, pollConfig(false))
	require.NoError(t, err)
	defer tl.Stop()

	// Give the tailer time to seek to the end.
	time.Sleep(200 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, Line{Text: "appended", Num: 1}, nextLine(t, tl))
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.log"), pollConfig(true))
	assert.Error(t, err)
}

func TestTailer_StopClosesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	tl, err := New(context.Background(), path, pollConfig(true))
	require.NoError(t, err)

	_ = tl.Stop()
	_ = tl.Stop()

	_, ok := <-tl.Lines()
	assert.False(t, ok)
	_, ok = <-tl.Errors()
	assert.False(t, ok)
}

func TestTailer_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	tl, err := New(ctx, path, pollConfig(true))
	require.NoError(t, err)
	defer tl.Stop()

	cancel()
	select {
	case _, ok := <-tl.Lines():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("lines channel not closed after cancel")
	}
}
