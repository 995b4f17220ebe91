package operations

import (
	"context"
	"log/slog"
	"time"
)

// logOperationStart logs the start of an operation execution
func (m *Manager) logOperationStart(ctx context.Context, operationID string, req OperationRequest) {
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", operationID),
		slog.String("input_path", req.InputPath),
		slog.Any("parameters", req.Parameters))
}

// logOperationComplete logs the completion of an operation execution
func (m *Manager) logOperationComplete(ctx context.Context, operationID string, duration time.Duration, status string) {
	m.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", operationID),
		slog.String("status", status),
		slog.Duration("duration", duration))
}

// logOperationError logs an operation error
func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "operation_error",
		slog.String("operation_id", operationID),
		slog.String("error", errorMsg))
}

// logStageStart logs the start of a Step execution
func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.InfoContext(ctx, "step_start",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

// logStageComplete logs the completion of a Step execution
func (m *Manager) logStageComplete(ctx context.Context, operationID, stageID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step_complete",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.Duration("duration", duration))
}

// logStageError logs a Step error
func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "step_error",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("error", errorMsg))
}
