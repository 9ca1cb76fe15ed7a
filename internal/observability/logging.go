// Package observability provides repository logging, domain metrics and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the logger used by the data layer.
var Logger *slog.Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	Logger = slog.New(handler)
}

// RepoLogging toggles per-operation repository logging.
var RepoLogging = true

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *slog.Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{
		tableName: tableName,
		logger:    Logger,
	}
}

func (r *RepoLogger) log(ctx context.Context, op string, fields map[string]any) {
	if !RepoLogging {
		return
	}
	attrs := []any{
		slog.String("table", r.tableName),
		slog.String("operation", op),
	}
	if tid := ExtractTraceID(ctx); tid != "" {
		attrs = append(attrs, slog.String("trace_id", tid))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	r.logger.InfoContext(ctx, "repository "+op, attrs...)
}

// LogCreate logs a repository create operation.
func (r *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	r.log(ctx, "create", fields)
}

// LogRead logs a repository read operation.
func (r *RepoLogger) LogRead(ctx context.Context, fields map[string]any) {
	r.log(ctx, "read", fields)
}

// LogUpdate logs a repository update operation.
func (r *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	r.log(ctx, "update", fields)
}

// LogError logs a repository error.
func (r *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if !RepoLogging || err == nil {
		return
	}
	r.logger.ErrorContext(ctx, "repository error",
		slog.String("table", r.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
