package log

import (
	"log/slog"
	"strings"
)

// Level is a slog level. The names below are the ones config accepts.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel parses "debug", "info", "warn"/"warning" or "error",
// ignoring case and surrounding space. Anything else is LevelInfo.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil || strings.ContainsAny(s, "+-") {
		return LevelInfo
	}
	return l
}
