package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

// Context keys picked up by the context-aware log handler.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok {
		r.AddAttrs(slog.String("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	var handler slog.Handler
	level := slog.LevelInfo

	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		// Pretty text output for local development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	Logger = slog.New(&ctxHandler{handler})
}

// WithUserID returns a context whose log lines carry the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// ServiceLogger provides structured logging for a named service.
type ServiceLogger struct {
	service string
	logger  *slog.Logger
}

// NewServiceLogger creates a ServiceLogger for the given service name.
func NewServiceLogger(service string) *ServiceLogger {
	return &ServiceLogger{service: service, logger: Logger}
}

// Info logs a service event.
func (l *ServiceLogger) Info(ctx context.Context, msg string, attrs ...any) {
	l.logger.InfoContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Warn logs a degraded but recoverable condition.
func (l *ServiceLogger) Warn(ctx context.Context, msg string, attrs ...any) {
	l.logger.WarnContext(ctx, msg, append([]any{slog.String("service", l.service)}, attrs...)...)
}

// Error logs a failed operation.
func (l *ServiceLogger) Error(ctx context.Context, msg string, err error, attrs ...any) {
	base := []any{slog.String("service", l.service)}
	if err != nil {
		base = append(base, slog.String("error", err.Error()))
	}
	l.logger.ErrorContext(ctx, msg, append(base, attrs...)...)
}
