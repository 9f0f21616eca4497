package observability

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
)

// NewLogger builds the process logger. The level is read from level on every
// record, so storing a new value changes verbosity without rebuilding the
// handler.
func NewLogger(w io.Writer, format config.LogFormat, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if config.NormalizeLogFormat(string(format)) == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(&contextHandler{Handler: h})
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// LogContext holds fields attached to every record logged with the context.
type LogContext struct {
	Group  string
	Member string
}

// WithGroup adds the tracked group to the context.
func WithGroup(ctx context.Context, group string) context.Context {
	lc := extractLogContext(ctx)
	lc.Group = group
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMember adds the member being polled to the context.
func WithMember(ctx context.Context, member string) context.Context {
	lc := extractLogContext(ctx)
	lc.Member = member
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// contextHandler copies LogContext fields onto each record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	lc := extractLogContext(ctx)
	if lc.Group != "" {
		r.AddAttrs(logfields.Group(lc.Group))
	}
	if lc.Member != "" {
		r.AddAttrs(logfields.Member(lc.Member))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
