// Package logging configures slog: JSON to stdout, with ERROR+ records also
// persisted to the system_logs table.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup installs a stdout JSON logger as the default.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(NewJSONHandler(os.Stdout, level)))
}

// Attach adds extra handlers next to stdout on the default logger.
func Attach(level slog.Level, extra ...slog.Handler) {
	handlers := append([]slog.Handler{NewJSONHandler(os.Stdout, level)}, extra...)
	slog.SetDefault(slog.New(NewMultiHandler(handlers...)))
}
