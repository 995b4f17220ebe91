package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"medcli/internal/config"
)

// InstrumentationName identifies the tracer used for pipeline spans
const InstrumentationName = "medcli"

// TracingConfig holds tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	OutputPath     string // span export file, JSON
	PrettyPrint    bool
}

// Tracing holds the configured tracer and its provider
type Tracing struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
	Enabled        bool
	Logger         *slog.Logger

	file *os.File
}

// DefaultTracingConfig returns a default tracing configuration
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    config.AppName,
		ServiceVersion: config.AppVersion,
		Enabled:        true,
		OutputPath:     filepath.Join(config.DefaultLogsDir, config.TraceName),
		PrettyPrint:    true,
	}
}

// InitTracing sets up span export for the run. When tracing is disabled it
// returns a no-op tracer so callers never need to branch.
func InitTracing(cfg *TracingConfig, logger *slog.Logger) (*Tracing, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	t := &Tracing{
		Enabled: cfg.Enabled,
		Logger:  logger,
	}

	if !cfg.Enabled {
		t.Tracer = noop.NewTracerProvider().Tracer(InstrumentationName)
		return t, nil
	}

	file, err := openTraceFile(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(file)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(createResource(cfg)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	t.file = file
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	logger.InfoContext(ctx, "Tracing initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("output", cfg.OutputPath))

	return t, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *TracingConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

// Shutdown flushes pending spans and closes the trace file.
// Call this during graceful shutdown; spans may be lost otherwise.
func (t *Tracing) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.file != nil {
		if err := t.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		t.file = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("tracing shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// openTraceFile creates the span export file, truncating any previous run
func openTraceFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file %s: %w", path, err)
	}

	return file, nil
}

// TraceIDFromContext extracts the span trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SpanFromContext returns the current span from context
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
