package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Options configures the handlers in this package.
type Options struct {
	// Level is the minimum level to emit. Default: slog.LevelInfo.
	Level slog.Leveler

	// NoColor disables level coloring even on a terminal.
	NoColor bool
}

func (o *Options) level() slog.Leveler {
	if o == nil || o.Level == nil {
		return slog.LevelInfo
	}
	return o.Level
}

// isTerminal reports whether f is a terminal. Replaced in tests.
var isTerminal = func(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useColor reports whether w is a terminal that should receive colors.
// It looks at w itself, not at stdout as color.NoColor does.
func useColor(w io.Writer, opts *Options) bool {
	if opts != nil && opts.NoColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(f)
}

// TextHandler writes one line per record to an io.Writer.
// It is safe for concurrent use; handlers derived through WithAttrs and
// WithGroup share the writer lock.
type TextHandler struct {
	level  slog.Leveler
	layout layout
	color  bool
	mu     *sync.Mutex
	w      io.Writer
	state  attrState
}

// NewConsoleHandler returns a handler for human-oriented output:
//
//	2006-01-02 15:04:05.000 │ LEVEL message key=value
//
// The level is colored when w is a terminal.
func NewConsoleHandler(w io.Writer, opts *Options) *TextHandler {
	return &TextHandler{
		level:  opts.level(),
		layout: layoutConsole,
		color:  useColor(w, opts),
		mu:     &sync.Mutex{},
		w:      w,
	}
}

// NewFileHandler returns an uncolored handler for log files:
//
//	2006-01-02 15:04:05.000 | LEVEL | message key=value
func NewFileHandler(w io.Writer, opts *Options) *TextHandler {
	return &TextHandler{
		level:  opts.level(),
		layout: layoutFile,
		mu:     &sync.Mutex{},
		w:      w,
	}
}

// Enabled implements slog.Handler.
func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	line := h.state.render(r, h.layout, h.color) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

// WithAttrs implements slog.Handler.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.state = h.state.withAttrs(attrs)
	return &h2
}

// WithGroup implements slog.Handler.
func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.state = h.state.withGroup(name)
	return &h2
}
