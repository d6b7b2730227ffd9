package logging

import (
	"log/slog"
	"os"
	"strings"
)

// EnvDebug is the environment variable that enables debug logging.
const EnvDebug = "DEBUG"

// LevelFromEnv returns slog.LevelDebug when DEBUG is one of "debug", "dbg",
// "1" or "true" (case-insensitive), and slog.LevelInfo otherwise.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvDebug))) {
	case "debug", "dbg", "1", "true":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New returns a console logger on stderr at the environment's level,
// tagged with logger=name.
func New(name string) *slog.Logger {
	h := NewConsoleHandler(os.Stderr, &Options{Level: LevelFromEnv()})
	return slog.New(h).With("logger", name)
}
