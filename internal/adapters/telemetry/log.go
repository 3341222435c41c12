package telemetry

import (
	"context"
	"log/slog"
)

// LogTelemetry writes each event to a structured logger. Successful queries
// log at info level, their SQL text at debug.
type LogTelemetry struct {
	logger *slog.Logger
}

// NewLogTelemetry creates a telemetry adapter that logs to logger.
func NewLogTelemetry(logger *slog.Logger) *LogTelemetry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogTelemetry{logger: logger}
}

// RecordQuery logs the query duration and row count.
func (l *LogTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {
	level := slog.LevelInfo
	msg := "query returned successfully"
	if !info.Success {
		level = slog.LevelWarn
		msg = "query failed"
	}
	l.logger.LogAttrs(ctx, level, msg,
		slog.String("operation", info.Operation),
		slog.Duration("duration", info.Duration),
		slog.Int("rows", info.Rows),
	)
	l.logger.LogAttrs(ctx, slog.LevelDebug, "query text", slog.String("sql", info.SQL))
}

func (l *LogTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	l.logger.LogAttrs(ctx, slog.LevelError, "operation failed",
		slog.String("operation", info.Operation),
		slog.Any("error", info.Error),
	)
}

func (l *LogTelemetry) RecordConnection(ctx context.Context, info ConnectionInfo) {
	level := slog.LevelInfo
	if !info.Success {
		level = slog.LevelError
	}
	l.logger.LogAttrs(ctx, level, "connection event",
		slog.String("event", info.Event),
		slog.Duration("duration", info.Duration),
		slog.Bool("success", info.Success),
	)
}

var _ Telemetry = (*LogTelemetry)(nil)
