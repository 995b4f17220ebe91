package dataprocessing

import (
	"context"
	"log/slog"
	"math"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// NumericReport counts the sanitizer's corrections.
type NumericReport struct {
	NegativeBillingFlipped int
	BillingCapped          int
	BillingBelowMin        int
	AgesOutOfRange         int
	RoomsOutOfRange        int
}

// NumericSanitizer corrects invalid numeric values. A negative billing
// amount is a sign error and is flipped; values that are impossible rather
// than merely wrong (age 430, room 0) become missing for the imputer.
type NumericSanitizer struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	cfg     config.PipelineConfig
}

// NewNumericSanitizer creates a NumericSanitizer with the given bounds.
func NewNumericSanitizer(logger *slog.Logger, collector *metrics.Collector, cfg config.PipelineConfig) *NumericSanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &NumericSanitizer{logger: logger, metrics: collector, cfg: cfg}
}

// Sanitize applies the numeric rules to every record in place. After this
// stage no record carries a negative billing amount.
func (s *NumericSanitizer) Sanitize(ctx context.Context, records []domain.PatientRecord) *NumericReport {
	report := &NumericReport{}

	for i := range records {
		rec := &records[i]

		if rec.BillingAmount != nil {
			if *rec.BillingAmount < 0 {
				*rec.BillingAmount = math.Abs(*rec.BillingAmount)
				report.NegativeBillingFlipped++
				s.metrics.IncNegativeBillingFlipped()
			}
			// Amounts above the cap are generator artifacts with a real
			// charge underneath, so they clamp. Sub-dollar amounts are
			// placeholders and become missing instead.
			if *rec.BillingAmount > s.cfg.BillingCap {
				*rec.BillingAmount = s.cfg.BillingCap
				report.BillingCapped++
				s.metrics.IncRangeViolation(domain.ColBillingAmount)
			} else if *rec.BillingAmount < s.cfg.MinBilling {
				rec.BillingAmount = nil
				report.BillingBelowMin++
				s.metrics.IncRangeViolation(domain.ColBillingAmount)
			}
		}

		if rec.Age != nil && (*rec.Age < 0 || *rec.Age > s.cfg.MaxAge) {
			rec.Age = nil
			report.AgesOutOfRange++
			s.metrics.IncRangeViolation(domain.ColAge)
		}

		if rec.RoomNumber != nil && (*rec.RoomNumber < s.cfg.MinRoomNumber || *rec.RoomNumber > s.cfg.MaxRoomNumber) {
			rec.RoomNumber = nil
			report.RoomsOutOfRange++
			s.metrics.IncRangeViolation(domain.ColRoomNumber)
		}
	}

	s.logger.InfoContext(ctx, "numeric sanitation complete",
		slog.Int("rows", len(records)),
		slog.Int("negative_billing_flipped", report.NegativeBillingFlipped),
		slog.Int("billing_capped", report.BillingCapped),
		slog.Int("billing_below_min", report.BillingBelowMin),
		slog.Int("ages_out_of_range", report.AgesOutOfRange),
		slog.Int("rooms_out_of_range", report.RoomsOutOfRange))

	return report
}
