package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Entry is a rendered log record passed to a callback.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string

	// Attrs holds every attribute, keyed by its group-qualified name.
	Attrs map[string]any

	// Line is the uncolored console rendering of the record.
	Line string
}

// panicOutput receives reports of panicking callbacks.
var panicOutput io.Writer = os.Stderr

// CallbackHandler delivers each record to a function.
type CallbackHandler struct {
	fn    func(Entry)
	level slog.Leveler
	state attrState
	attrs []slog.Attr // WithAttrs attributes, already group-qualified
}

// NewCallbackHandler returns a handler calling fn for every enabled record.
// fn may be called concurrently. A panic in fn is reported on stderr and
// does not reach the logging call site.
func NewCallbackHandler(fn func(Entry), opts *Options) *CallbackHandler {
	return &CallbackHandler{fn: fn, level: opts.level()}
}

// Enabled implements slog.Handler.
func (h *CallbackHandler) Enabled(_ context.Context, l slog.Level) bool {
	return h.fn != nil && l >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *CallbackHandler) Handle(_ context.Context, r slog.Record) error {
	if h.fn == nil {
		return nil
	}

	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		collectAttrs(attrs, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collectAttrs(attrs, h.state.groups, a)
		return true
	})

	entry := Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
		Line:    h.state.render(r, layoutConsole, false),
	}

	defer func() {
		if v := recover(); v != nil {
			fmt.Fprintf(panicOutput, "logging: callback panicked: %v\n", v)
		}
	}()
	h.fn(entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *CallbackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.state = h.state.withAttrs(attrs)
	h2.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(h2.attrs, h.attrs)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, qualify(h.state.groups, a))
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *CallbackHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.state = h.state.withGroup(name)
	return &h2
}

// qualify nests a inside groups so it can be flattened later without them.
func qualify(groups []string, a slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a = slog.Attr{Key: groups[i], Value: slog.GroupValue(a)}
	}
	return a
}
