package utils

import (
	"context"
	"errors"
	"log/slog"
)

// LogFanout is a slog.Handler that duplicates each record across several
// handlers, so the terminal and the run's log file both see every record
// at their own level.
type LogFanout struct {
	handlers []slog.Handler
}

func NewLogFanout(handlers ...slog.Handler) *LogFanout {
	return &LogFanout{handlers: handlers}
}

func (f *LogFanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *LogFanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *LogFanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *LogFanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *LogFanout) derive(fn func(slog.Handler) slog.Handler) *LogFanout {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = fn(h)
	}
	return &LogFanout{handlers: next}
}
