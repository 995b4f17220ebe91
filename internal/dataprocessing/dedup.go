package dataprocessing

import (
	"context"
	"log/slog"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// Deduplicator removes exact duplicate rows from the table.
type Deduplicator struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewDeduplicator creates a Deduplicator.
func NewDeduplicator(logger *slog.Logger, collector *metrics.Collector) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &Deduplicator{logger: logger, metrics: collector}
}

// Dedupe drops rows whose fifteen raw fields all equal an earlier row's.
// Missing values compare equal to missing values. Surviving rows keep their
// first-occurrence order, so running Dedupe on its own output removes
// nothing further.
func (d *Deduplicator) Dedupe(ctx context.Context, records []domain.PatientRecord) ([]domain.PatientRecord, int) {
	if len(records) == 0 {
		return records, 0
	}

	seen := make(map[string]struct{}, len(records))
	kept := make([]domain.PatientRecord, 0, len(records))

	for _, rec := range records {
		key := rec.Fingerprint()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, rec)
	}

	removed := len(records) - len(kept)
	d.metrics.AddDuplicatesRemoved(removed)

	d.logger.InfoContext(ctx, "deduplication complete",
		slog.Int("input_rows", len(records)),
		slog.Int("output_rows", len(kept)),
		slog.Int("removed", removed))

	return kept, removed
}
