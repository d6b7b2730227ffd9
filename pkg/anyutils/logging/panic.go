package logging

import (
	"log/slog"
	"runtime/debug"
)

// CapturePanic reports a panic in the calling goroutine and re-panics.
// It must be deferred directly:
//
//	defer logging.CapturePanic(logging.ReportTo(logger))
func CapturePanic(report func(value any, stack []byte)) {
	if v := recover(); v != nil {
		if report != nil {
			report(v, debug.Stack())
		}
		panic(v)
	}
}

// ReportTo returns a CapturePanic reporter that logs at Error.
func ReportTo(logger *slog.Logger) func(any, []byte) {
	return func(v any, stack []byte) {
		logger.Error("unhandled panic", "panic", v, "stack", string(stack))
	}
}
