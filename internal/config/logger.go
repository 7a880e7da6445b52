package config

import (
    "io"
    "log/slog"
    "strings"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
    var level slog.Level
    switch strings.ToLower(c.LogLevel) {
    case "debug":
        level = slog.LevelDebug
    case "warn", "warning":
        level = slog.LevelWarn
    case "error":
        level = slog.LevelError
    default:
        level = slog.LevelInfo
    }
    opts := &slog.HandlerOptions{Level: level}
    var h slog.Handler
    if strings.EqualFold(c.LogFormat, "json") {
        h = slog.NewJSONHandler(w, opts)
    } else {
        h = slog.NewTextHandler(w, opts)
    }
    return slog.New(h).With("env", c.Env)
}
