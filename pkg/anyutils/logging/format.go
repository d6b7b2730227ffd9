package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
)

// TimeFormat is the timestamp layout of every handler in this package.
const TimeFormat = "2006-01-02 15:04:05.000"

type layout int

const (
	layoutConsole layout = iota
	layoutFile
)

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgHiBlack),
	slog.LevelInfo:  color.New(color.FgCyan),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

// levelColor returns the color for the nearest standard level at or below l.
func levelColor(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return levelColors[slog.LevelError]
	case l >= slog.LevelWarn:
		return levelColors[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return levelColors[slog.LevelInfo]
	default:
		return levelColors[slog.LevelDebug]
	}
}

// attrState carries attributes and groups added through WithAttrs and WithGroup.
type attrState struct {
	prefix string // pre-rendered " k=v" pairs
	groups []string
}

func (s attrState) withAttrs(attrs []slog.Attr) attrState {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	for _, a := range attrs {
		appendAttr(&sb, s.groups, a)
	}
	return attrState{prefix: sb.String(), groups: s.groups}
}

func (s attrState) withGroup(name string) attrState {
	if name == "" {
		return s
	}
	groups := make([]string, len(s.groups), len(s.groups)+1)
	copy(groups, s.groups)
	return attrState{prefix: s.prefix, groups: append(groups, name)}
}

// render formats r as a single line without a trailing newline.
func (s attrState) render(r slog.Record, lay layout, colored bool) string {
	var sb strings.Builder

	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format(TimeFormat))
		if lay == layoutFile {
			sb.WriteString(" | ")
		} else {
			sb.WriteString(" │ ")
		}
	}

	level := r.Level.String()
	if lay == layoutFile {
		sb.WriteString(level)
		sb.WriteString(" | ")
	} else {
		padded := fmt.Sprintf("%-5s", level)
		if colored {
			c := *levelColor(r.Level)
			c.EnableColor()
			padded = c.Sprint(padded)
		}
		sb.WriteString(padded)
		sb.WriteByte(' ')
	}

	sb.WriteString(r.Message)
	sb.WriteString(s.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, s.groups, a)
		return true
	})
	return sb.String()
}

// appendAttr writes " key=value", qualifying the key with groups.
func appendAttr(sb *strings.Builder, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range attrs {
			appendAttr(sb, groups, ga)
		}
		return
	}

	sb.WriteByte(' ')
	for _, g := range groups {
		sb.WriteString(Quote(g))
		sb.WriteByte('.')
	}
	sb.WriteString(Quote(a.Key))
	sb.WriteByte('=')
	sb.WriteString(Quote(valueString(a.Value)))
}

// collectAttrs flattens attributes into group-qualified keys.
func collectAttrs(dst map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range a.Value.Group() {
			collectAttrs(dst, groups, ga)
		}
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	dst[key] = a.Value.Any()
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// Quote returns v unchanged, or double-quoted with escapes when it is empty
// or contains a space, equals sign, quote, backslash or control character.
func Quote(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
