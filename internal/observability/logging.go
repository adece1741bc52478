// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableCorrelationID bool
	EnableRepoLogging   bool
	EnableStreamLogging bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableCorrelationID: true,
		EnableRepoLogging:   true,
		EnableStreamLogging: true,
	}
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

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

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{
		tableName: tableName,
		logger:    GlobalLogger,
	}
}

func (l *RepoLogger) log(ctx context.Context, operation string, fields map[string]interface{}) {
	if !Config.EnableRepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "repository "+operation, attrs...)
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, "create", fields)
}

// LogRead logs a repository read operation.
func (l *RepoLogger) LogRead(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, "read", fields)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, "update", fields)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, "delete", fields)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableRepoLogging {
		return
	}
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// StreamLogger provides structured logging for subscription and websocket streams.
type StreamLogger struct {
	streamName string
	logger     *Logger
}

// NewStreamLogger creates a new StreamLogger for the given stream.
func NewStreamLogger(streamName string) *StreamLogger {
	return &StreamLogger{
		streamName: streamName,
		logger:     GlobalLogger,
	}
}

// LogSubscribe logs a new subscription.
func (l *StreamLogger) LogSubscribe(ctx context.Context, userID, topic string) {
	if !Config.EnableStreamLogging {
		return
	}
	l.logger.InfoContext(ctx, "stream subscribed",
		slog.String("stream", l.streamName),
		slog.String("user_id", userID),
		slog.String("topic", topic),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogUnsubscribe logs a subscription teardown.
func (l *StreamLogger) LogUnsubscribe(ctx context.Context, userID, topic, reason string) {
	if !Config.EnableStreamLogging {
		return
	}
	l.logger.InfoContext(ctx, "stream unsubscribed",
		slog.String("stream", l.streamName),
		slog.String("user_id", userID),
		slog.String("topic", topic),
		slog.String("reason", reason),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a stream error event.
func (l *StreamLogger) LogError(ctx context.Context, userID, topic string, err error) {
	if !Config.EnableStreamLogging {
		return
	}
	l.logger.ErrorContext(ctx, "stream error",
		slog.String("stream", l.streamName),
		slog.String("user_id", userID),
		slog.String("topic", topic),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogDelivery logs one snapshot delivery.
func (l *StreamLogger) LogDelivery(ctx context.Context, userID, topic string, size int) {
	if !Config.EnableStreamLogging {
		return
	}
	l.logger.InfoContext(ctx, "stream delivery",
		slog.String("stream", l.streamName),
		slog.String("user_id", userID),
		slog.String("topic", topic),
		slog.Int("snapshot_size", size),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
