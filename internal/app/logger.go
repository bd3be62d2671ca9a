package app

import (
	"io"
	"log/slog"
	"strings"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// normalizeLogSetting folds a level or format name to its canonical form.
func normalizeLogSetting(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// newLogger builds the App's logger from cfg. Empty or unknown settings fall
// back to info and text. It does not set the global logger.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	level, ok := logLevels[normalizeLogSetting(cfg.LogLevel)]
	if !ok {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if normalizeLogSetting(cfg.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
