package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// recording is the shared buffer behind a RecordHandler and its derivatives.
type recording struct {
	mu  sync.Mutex
	buf strings.Builder
}

// RecordHandler writes console output and keeps an uncolored copy of
// every emitted line in memory.
type RecordHandler struct {
	console *TextHandler
	rec     *recording
}

// NewRecordHandler returns a console handler on w that also records output.
func NewRecordHandler(w io.Writer, opts *Options) *RecordHandler {
	return &RecordHandler{
		console: NewConsoleHandler(w, opts),
		rec:     &recording{},
	}
}

// Export returns everything recorded since creation or the last Clear.
func (h *RecordHandler) Export() string {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return h.rec.buf.String()
}

// Clear discards the recorded output.
func (h *RecordHandler) Clear() {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	h.rec.buf.Reset()
}

// Enabled implements slog.Handler.
func (h *RecordHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.console.Enabled(ctx, l)
}

// Handle implements slog.Handler.
func (h *RecordHandler) Handle(ctx context.Context, r slog.Record) error {
	plain := h.console.state.render(r, layoutConsole, false)

	h.rec.mu.Lock()
	h.rec.buf.WriteString(plain)
	h.rec.buf.WriteByte('\n')
	h.rec.mu.Unlock()

	return h.console.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *RecordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RecordHandler{console: h.console.WithAttrs(attrs).(*TextHandler), rec: h.rec}
}

// WithGroup implements slog.Handler.
func (h *RecordHandler) WithGroup(name string) slog.Handler {
	return &RecordHandler{console: h.console.WithGroup(name).(*TextHandler), rec: h.rec}
}
