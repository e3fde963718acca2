// Package logger provides centralized slog.Logger construction with
// configurable level and output format (text or JSON).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// New creates a *slog.Logger configured with the given level and format.
// Level: "debug", "info", "warn", "error" (default: "info").
// Format: "json" or "text" (default: "text").
// Output goes to stderr.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a *slog.Logger writing to w.
// Useful for testing or redirecting output.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level string to slog.Level.
// Recognized values: "debug", "warn", "error". Everything else returns LevelInfo.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLocation returns a logger that stamps records in loc, so log times
// line up with the timestamps printed in notifications.
func WithLocation(l *slog.Logger, loc *time.Location) *slog.Logger {
	if loc == nil {
		return l
	}
	return slog.New(&locationHandler{Handler: l.Handler(), loc: loc})
}

type locationHandler struct {
	slog.Handler
	loc *time.Location
}

func (h *locationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Time = r.Time.In(h.loc)
	return h.Handler.Handle(ctx, r)
}

func (h *locationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &locationHandler{Handler: h.Handler.WithAttrs(attrs), loc: h.loc}
}

func (h *locationHandler) WithGroup(name string) slog.Handler {
	return &locationHandler{Handler: h.Handler.WithGroup(name), loc: h.loc}
}
