package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/recipe-stock/internal/config"
)

// NewLogger builds the process logger from cfg, tags every record with the
// application name and installs it as the slog default. Records go to w, or
// os.Stderr when w is nil, so command output on stdout stays clean.
//
// Format "json" is for production; anything else is text with source
// locations. Timestamps are written in UTC. Unknown levels mean info.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	jsonFormat := strings.EqualFold(strings.TrimSpace(cfg.Format), "json")
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   !jsonFormat,
		ReplaceAttr: utcTime,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("app", "recipestock"))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug, warn and error (any case) to their slog levels.
// Everything else is info.
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

func utcTime(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}
