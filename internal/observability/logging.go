// Package observability provides logging and metrics for the client.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID keys the per-request correlation id in a context.
const CorrelationID LogContextKey = "correlation_id"

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// RequestLogger provides structured logging for outbound API requests.
type RequestLogger struct {
	endpoint string
	logger   *Logger
}

// NewRequestLogger creates a RequestLogger for the given endpoint name.
func NewRequestLogger(endpoint string) *RequestLogger {
	return &RequestLogger{
		endpoint: endpoint,
		logger:   GlobalLogger,
	}
}

// LogRequest logs an outbound request with its method and path.
func (l *RequestLogger) LogRequest(ctx context.Context, method, path string) {
	l.logger.InfoContext(ctx, "api request",
		slog.String("endpoint", l.endpoint),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogResponse logs the outcome of an outbound request.
func (l *RequestLogger) LogResponse(ctx context.Context, status int, err error) {
	attrs := []any{
		slog.String("endpoint", l.endpoint),
		slog.Int("status", status),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.WarnContext(ctx, "api response", attrs...)
		return
	}
	l.logger.InfoContext(ctx, "api response", attrs...)
}
