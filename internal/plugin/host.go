package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/time/rate"

	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

const (
	// MaxLogSize is the maximum size of a single log message (256 bytes).
	MaxLogSize = 256

	// LogRateLimit is the maximum number of log calls per second.
	LogRateLimit = 10

	// RegexTimeout bounds a single host regex evaluation.
	RegexTimeout = 5 * time.Millisecond

	// RegexCacheSize is the number of compiled host expressions kept.
	RegexCacheSize = 100
)

// Return codes of regex_search.
const (
	searchNoMatch        = 0xFFFFFFFF // -1
	searchBufferTooSmall = 0xFFFFFFFE // -2
)

// hostFunctions implements the "env" module imported by plugins.
type hostFunctions struct {
	cache       *match.Cache
	logger      *slog.Logger
	rateLimiter *rate.Limiter
}

func newHostFunctions(logger *slog.Logger) *hostFunctions {
	if logger == nil {
		logger = discardLogger
	}
	return &hostFunctions{
		cache:       match.NewCache(RegexCacheSize),
		logger:      logger,
		rateLimiter: rate.NewLimiter(LogRateLimit, LogRateLimit),
	}
}

// search evaluates pattern against str with the backtracking engine.
func (h *hostFunctions) search(ctx context.Context, str, pattern string) (match.Result, error) {
	m, err := match.Compile([]string{pattern},
		match.WithEngine(match.EngineBacktrack),
		match.WithEvalTimeout(RegexTimeout),
		match.WithWorkers(1),
		match.WithCache(h.cache),
	)
	if err != nil {
		return match.Result{}, err
	}
	rows, err := m.MatchAll(ctx, []string{str})
	if err != nil {
		return match.Result{}, err
	}
	return rows[0][0], nil
}

func (h *hostFunctions) readArgs(m api.Module, strPtr, strLen, rePtr, reLen uint32) (string, string, bool) {
	strBytes, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return "", "", false
	}
	reBytes, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return "", "", false
	}
	return string(strBytes), string(reBytes), true
}

func (h *hostFunctions) warnSearch(pattern string, err error) {
	if errors.Is(err, match.ErrEvalTimeout) {
		h.logger.Warn("plugin regex timeout", "pattern", pattern)
		return
	}
	h.logger.Warn("plugin regex failed", "pattern", pattern, "error", err)
}

// regexMatch implements regex_match.
// Signature: (str_ptr, str_len, re_ptr, re_len) -> i32
// Returns 1 if the pattern matches anywhere in the string, 0 otherwise.
func (h *hostFunctions) regexMatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
	str, pattern, ok := h.readArgs(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return 0
	}
	res, err := h.search(ctx, str, pattern)
	if err != nil {
		h.warnSearch(pattern, err)
		return 0
	}
	if res.Matched {
		return 1
	}
	return 0
}

// regexSearch implements regex_search.
// Signature: (str_ptr, str_len, re_ptr, re_len, out_ptr, out_len) -> i32
// Writes the leftmost match to the output buffer and returns its length
// (possibly 0), -1 if there is no match or on error, and -2 if the buffer
// is too small.
func (h *hostFunctions) regexSearch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32 {
	str, pattern, ok := h.readArgs(m, strPtr, strLen, rePtr, reLen)
	if !ok {
		return searchNoMatch
	}
	res, err := h.search(ctx, str, pattern)
	if err != nil {
		h.warnSearch(pattern, err)
		return searchNoMatch
	}
	if !res.Matched {
		return searchNoMatch
	}
	if uint32(len(res.Value)) > outLen {
		return searchBufferTooSmall
	}
	if !m.Memory().Write(outPtr, []byte(res.Value)) {
		return searchNoMatch
	}
	return uint32(len(res.Value))
}

// log implements log.
// Signature: (level, ptr, len)
// Levels: 0=debug, 1=info, 2=warn, 3=error
func (h *hostFunctions) log(ctx context.Context, m api.Module, level, ptr, msgLen uint32) {
	if !h.rateLimiter.Allow() {
		return
	}

	truncated := false
	if msgLen > MaxLogSize {
		truncated = true
		msgLen = MaxLogSize
	}

	msgBytes, ok := m.Memory().Read(ptr, msgLen)
	if !ok {
		return
	}

	msg := strings.ToValidUTF8(string(msgBytes), "\ufffd")
	if truncated {
		msg += " [truncated]"
	}

	switch level {
	case 0:
		h.logger.DebugContext(ctx, "[plugin] "+msg)
	case 1:
		h.logger.InfoContext(ctx, "[plugin] "+msg)
	case 2:
		h.logger.WarnContext(ctx, "[plugin] "+msg)
	case 3:
		h.logger.ErrorContext(ctx, "[plugin] "+msg)
	default:
		h.logger.InfoContext(ctx, fmt.Sprintf("[plugin] (level=%d) %s", level, msg))
	}
}

// nowMs implements now_ms.
// Signature: () -> i64
func (h *hostFunctions) nowMs() int64 {
	return time.Now().UnixMilli()
}
