package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// DateRepairReport counts date-order corrections.
type DateRepairReport struct {
	Swapped int
}

// DateRepairer restores admission/discharge ordering. An inverted pair is
// treated as a transposition at data entry, so the two values are swapped
// and the record is retained, never dropped.
type DateRepairer struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewDateRepairer creates a DateRepairer.
func NewDateRepairer(logger *slog.Logger, collector *metrics.Collector) *DateRepairer {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &DateRepairer{logger: logger, metrics: collector}
}

// Repair swaps every admission/discharge pair where discharge precedes
// admission. After Repair no record has discharge_date before
// admission_date unless one of the two is still missing.
func (d *DateRepairer) Repair(ctx context.Context, records []domain.PatientRecord) *DateRepairReport {
	report := &DateRepairReport{}

	for i := range records {
		if swapDatesIfInverted(&records[i]) {
			report.Swapped++
			d.metrics.IncDatesSwapped()
		}
	}

	d.logger.InfoContext(ctx, "date repair complete",
		slog.Int("rows", len(records)),
		slog.Int("swapped", report.Swapped))

	return report
}

// swapDatesIfInverted fixes one record's date ordering. Both dates must be
// present for an inversion to be detectable.
func swapDatesIfInverted(rec *domain.PatientRecord) bool {
	if rec.AdmissionDate == nil || rec.DischargeDate == nil {
		return false
	}
	if !rec.DischargeDate.Before(*rec.AdmissionDate) {
		return false
	}
	rec.AdmissionDate, rec.DischargeDate = rec.DischargeDate, rec.AdmissionDate
	return true
}

// lengthOfStayDays returns the stay length in whole days with a one-day
// floor; a same-day admission and discharge counts as a one-day stay.
func lengthOfStayDays(admission, discharge time.Time) int {
	days := int(discharge.Sub(admission).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
