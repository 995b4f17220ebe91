package operations

import (
	"context"
	"fmt"
	"time"

	"medcli/internal/infrastructure"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	TracerName = "medcli.operation"
)

// OperationTracer provides OpenTelemetry spans for operation execution.
// Counters live in the metrics collector; the tracer only records timing
// and outcome on the span tree.
type OperationTracer struct {
	tracer trace.Tracer
}

// NewOperationTracer creates a new operation tracer. A nil or disabled
// tracing setup yields no-op spans so callers never branch.
func NewOperationTracer(tracing *infrastructure.Tracing) *OperationTracer {
	if tracing == nil || tracing.Tracer == nil {
		return &OperationTracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
		}
	}
	return &OperationTracer{
		tracer: tracing.Tracer,
	}
}

// TraceOperationExecution creates a span for the entire operation execution
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, req OperationRequest) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.input_path", req.InputPath),
		),
	)

	return ctx, span
}

// TraceStageExecution creates a span for individual Step execution
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("operation.step.%s", stageID)
	ctx, span := pt.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)

	return ctx, span
}

// RecordOperationCompletion records operation completion on the span
func (pt *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, operationID string, duration time.Duration, status string, rowsProcessed int64) {
	span.SetAttributes(
		attribute.String("operation.status", status),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
		attribute.Int64("operation.rows_processed", rowsProcessed),
	)

	infrastructure.AddSpanEvent(ctx, "operation.completed", map[string]interface{}{
		"operation_id": operationID,
		"status":       status,
		"duration":     duration.Seconds(),
		"rows":         rowsProcessed,
	})

	if status == string(OperationStatusCompleted) {
		span.SetStatus(codes.Ok, "operation completed successfully")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("operation finished with status: %s", status))
	}
}

// RecordStageCompletion records Step completion on the span
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, operationID, stageID string, duration time.Duration, success bool, itemsProcessed int64) {
	status := "success"
	if !success {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int64("step.items_processed", itemsProcessed),
	)

	infrastructure.AddSpanEvent(ctx, "step.completed", map[string]interface{}{
		"step_id":         stageID,
		"status":          status,
		"duration":        duration.Seconds(),
		"items_processed": itemsProcessed,
	})

	if success {
		span.SetStatus(codes.Ok, "step completed successfully")
	} else {
		span.SetStatus(codes.Error, "step execution failed")
	}
}

// RecordStageError records Step errors on the active span
func (pt *OperationTracer) RecordStageError(ctx context.Context, operationID, stageID string, err error) {
	infrastructure.RecordError(ctx, err,
		trace.WithAttributes(
			attribute.String("step_id", stageID),
			attribute.String("error.type", "step_execution_error"),
		),
	)
}

// RecordOperationError records operation errors on the active span
func (pt *OperationTracer) RecordOperationError(ctx context.Context, operationID string, err error) {
	infrastructure.RecordError(ctx, err,
		trace.WithAttributes(
			attribute.String("operation_id", operationID),
			attribute.String("error.type", "operation_execution_error"),
		),
	)
}
