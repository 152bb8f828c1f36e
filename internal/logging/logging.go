// Package logging builds the process-wide slog logger and carries
// per-operation loggers through a context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const loggerKey contextKey = "logger"

// ParseLevel maps a config level name to a slog level. Unknown names
// yield info and ok=false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds a logger writing to w in "text" or "json" format.
// A nil w means stderr, so table output on stdout stays clean.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, ok := ParseLevel(level)

	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	l := slog.New(handler)
	if !ok {
		l.Warn("invalid log level, defaulting to info", "configuredLevel", level)
	}
	return l
}

// Init builds a logger with New and installs it as the slog default.
func Init(level, format string) *slog.Logger {
	l := New(level, format, nil)
	slog.SetDefault(l)
	return l
}

// FromContext returns the logger stored in ctx, or the slog default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ToContext embeds a logger into ctx.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// StartOperation tags base with a fresh op_id and the operation name and
// stores the result in the returned context.
func StartOperation(ctx context.Context, base *slog.Logger, op string) (context.Context, *slog.Logger) {
	if base == nil {
		base = FromContext(ctx)
	}
	l := base.With("op", op, "op_id", uuid.NewString())
	return ToContext(ctx, l), l
}
