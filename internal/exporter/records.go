package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// Output labels used on the rows_written metric.
const (
	OutputCleaned = "cleaned"
	OutputMLReady = "ml_ready"
)

// RecordExporter writes the two tabular artifacts of a run: the cleaned
// CSV with all eighteen columns and the ML-ready CSV without the Name
// column. Both are streamed row by row; the table never has to fit in an
// intermediate [][]string.
type RecordExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
	metrics   *metrics.Collector
	emitBOM   bool
}

// NewRecordExporter creates a RecordExporter.
func NewRecordExporter(paths *config.Paths, logger *slog.Logger, collector *metrics.Collector, emitBOM bool) *RecordExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &RecordExporter{
		csvWriter: NewCSVWriter(paths),
		logger:    logger,
		metrics:   collector,
		emitBOM:   emitBOM,
	}
}

// ExportCleaned writes the cleaned table to path and returns the number
// of rows written, excluding the header.
func (e *RecordExporter) ExportCleaned(ctx context.Context, path string, records []domain.PatientRecord) (int, error) {
	n, err := e.export(ctx, path, domain.CleanedColumns(), records, cleanedRow)
	if err != nil {
		return 0, fmt.Errorf("failed to export cleaned csv: %w", err)
	}
	e.metrics.AddRowsWritten(OutputCleaned, n)
	return n, nil
}

// ExportMLReady writes the ML-ready table to path and returns the number
// of rows written, excluding the header.
func (e *RecordExporter) ExportMLReady(ctx context.Context, path string, records []domain.PatientRecord) (int, error) {
	n, err := e.export(ctx, path, domain.MLReadyColumns(), records, mlReadyRow)
	if err != nil {
		return 0, fmt.Errorf("failed to export ml-ready csv: %w", err)
	}
	e.metrics.AddRowsWritten(OutputMLReady, n)
	return n, nil
}

func (e *RecordExporter) export(ctx context.Context, path string, headers []string, records []domain.PatientRecord, row func(*domain.PatientRecord) []string) (int, error) {
	e.logger.InfoContext(ctx, "exporting records",
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.Int("columns", len(headers)))

	stream, err := e.csvWriter.CreateStreamWriter(path, headers, e.emitBOM)
	if err != nil {
		return 0, err
	}

	written := 0
	for i := range records {
		if err := stream.WriteRecord(row(&records[i])); err != nil {
			stream.Close()
			return 0, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		written++
	}

	if err := stream.Close(); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "records exported",
		slog.String("path", path),
		slog.Int("rows", written))

	return written, nil
}
