package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"time"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// Imputation strategies as reported in the summary artifact.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
	StrategyMode   = "mode"
	StrategyFill   = "ffill+bfill"
	StrategyNone   = "none"
)

// ImputeReport records what the Imputer filled, per column.
type ImputeReport struct {
	Filled         map[string]int    // column -> values filled
	Strategies     map[string]string // column -> strategy applied
	Degenerate     []string          // columns with no observed values, left missing
	DatesReordered int               // pairs re-swapped after date filling
}

// TotalFilled returns the number of filled values across all columns.
func (r *ImputeReport) TotalFilled() int {
	total := 0
	for _, n := range r.Filled {
		total += n
	}
	return total
}

// Imputer fills missing values with a fixed per-column strategy: mean for
// age and room number, median for the money column, mode for categoricals,
// and forward-then-backward fill along row order for the two dates.
// Medication is deliberately left missing; an absent medication is
// information.
type Imputer struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewImputer creates an Imputer.
func NewImputer(logger *slog.Logger, collector *metrics.Collector) *Imputer {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &Imputer{logger: logger, metrics: collector}
}

// Impute fills missing values in place. After this stage every column
// except Medication (and Name, which the ML output drops) has no missing
// values, unless a column had no observed values at all; such degenerate
// columns are reported and left missing.
func (im *Imputer) Impute(ctx context.Context, records []domain.PatientRecord) *ImputeReport {
	report := &ImputeReport{
		Filled:     make(map[string]int),
		Strategies: make(map[string]string),
	}

	report.Strategies[domain.ColAge] = StrategyMean
	report.Strategies[domain.ColBillingAmount] = StrategyMedian
	report.Strategies[domain.ColRoomNumber] = StrategyMean
	report.Strategies[domain.ColAdmissionDate] = StrategyFill
	report.Strategies[domain.ColDischargeDate] = StrategyFill
	report.Strategies[domain.ColMedication] = StrategyNone

	if len(records) == 0 {
		return report
	}

	im.imputeAge(records, report)
	im.imputeBilling(records, report)
	im.imputeRoom(records, report)
	im.imputeCategoricals(records, report)
	im.imputeDates(records, report)

	im.logger.InfoContext(ctx, "imputation complete",
		slog.Int("rows", len(records)),
		slog.Int("values_filled", report.TotalFilled()),
		slog.Int("dates_reordered", report.DatesReordered),
		slog.Any("degenerate_columns", report.Degenerate))

	return report
}

// imputeAge fills missing ages with the mean of observed ages, rounded to
// the nearest whole year.
func (im *Imputer) imputeAge(records []domain.PatientRecord, report *ImputeReport) {
	observed := make([]float64, 0, len(records))
	for i := range records {
		if records[i].Age != nil {
			observed = append(observed, float64(*records[i].Age))
		}
	}
	if len(observed) == 0 {
		im.markDegenerate(domain.ColAge, report)
		return
	}

	fill := int(math.Round(calculateMean(observed)))
	filled := 0
	for i := range records {
		if records[i].Age == nil {
			records[i].Age = domain.IntPtr(fill)
			filled++
		}
	}
	im.recordFilled(domain.ColAge, StrategyMean, filled, report)
}

// imputeBilling fills missing billing amounts with the median, which keeps
// the fill robust against the long right tail of hospital bills.
func (im *Imputer) imputeBilling(records []domain.PatientRecord, report *ImputeReport) {
	observed := make([]float64, 0, len(records))
	for i := range records {
		if records[i].BillingAmount != nil {
			observed = append(observed, *records[i].BillingAmount)
		}
	}
	if len(observed) == 0 {
		im.markDegenerate(domain.ColBillingAmount, report)
		return
	}

	fill := calculateMedian(observed)
	filled := 0
	for i := range records {
		if records[i].BillingAmount == nil {
			records[i].BillingAmount = domain.FloatPtr(fill)
			filled++
		}
	}
	im.recordFilled(domain.ColBillingAmount, StrategyMedian, filled, report)
}

// imputeRoom fills missing room numbers with the rounded mean room.
func (im *Imputer) imputeRoom(records []domain.PatientRecord, report *ImputeReport) {
	observed := make([]float64, 0, len(records))
	for i := range records {
		if records[i].RoomNumber != nil {
			observed = append(observed, float64(*records[i].RoomNumber))
		}
	}
	if len(observed) == 0 {
		im.markDegenerate(domain.ColRoomNumber, report)
		return
	}

	fill := int(math.Round(calculateMean(observed)))
	filled := 0
	for i := range records {
		if records[i].RoomNumber == nil {
			records[i].RoomNumber = domain.IntPtr(fill)
			filled++
		}
	}
	im.recordFilled(domain.ColRoomNumber, StrategyMean, filled, report)
}

// imputeCategoricals fills every missing categorical with the column mode.
func (im *Imputer) imputeCategoricals(records []domain.PatientRecord, report *ImputeReport) {
	columns := []struct {
		column string
		get    func(*domain.PatientRecord) string
		set    func(*domain.PatientRecord, string)
	}{
		{domain.ColGender,
			func(r *domain.PatientRecord) string { return string(r.Gender) },
			func(r *domain.PatientRecord, v string) { r.Gender = domain.Gender(v) }},
		{domain.ColBloodType,
			func(r *domain.PatientRecord) string { return string(r.BloodType) },
			func(r *domain.PatientRecord, v string) { r.BloodType = domain.BloodType(v) }},
		{domain.ColMedicalCondition,
			func(r *domain.PatientRecord) string { return r.MedicalCondition },
			func(r *domain.PatientRecord, v string) { r.MedicalCondition = v }},
		{domain.ColDoctor,
			func(r *domain.PatientRecord) string { return r.Doctor },
			func(r *domain.PatientRecord, v string) { r.Doctor = v }},
		{domain.ColHospital,
			func(r *domain.PatientRecord) string { return r.Hospital },
			func(r *domain.PatientRecord, v string) { r.Hospital = v }},
		{domain.ColInsuranceProvider,
			func(r *domain.PatientRecord) string { return r.InsuranceProvider },
			func(r *domain.PatientRecord, v string) { r.InsuranceProvider = v }},
		{domain.ColAdmissionType,
			func(r *domain.PatientRecord) string { return string(r.AdmissionType) },
			func(r *domain.PatientRecord, v string) { r.AdmissionType = domain.AdmissionType(v) }},
		{domain.ColTestResults,
			func(r *domain.PatientRecord) string { return string(r.TestResults) },
			func(r *domain.PatientRecord, v string) { r.TestResults = domain.TestResult(v) }},
	}

	for _, col := range columns {
		report.Strategies[col.column] = StrategyMode

		values := make([]string, 0, len(records))
		for i := range records {
			values = append(values, col.get(&records[i]))
		}

		fill, ok := modeString(values)
		if !ok {
			im.markDegenerate(col.column, report)
			continue
		}

		filled := 0
		for i := range records {
			if col.get(&records[i]) == "" {
				col.set(&records[i], fill)
				filled++
			}
		}
		im.recordFilled(col.column, StrategyMode, filled, report)
	}
}

// imputeDates forward-fills then backward-fills each date column along row
// order, then restores admission/discharge ordering on rows the fill put
// out of order.
func (im *Imputer) imputeDates(records []domain.PatientRecord, report *ImputeReport) {
	columns := []struct {
		column string
		get    func(*domain.PatientRecord) *time.Time
		set    func(*domain.PatientRecord, *time.Time)
	}{
		{domain.ColAdmissionDate,
			func(r *domain.PatientRecord) *time.Time { return r.AdmissionDate },
			func(r *domain.PatientRecord, t *time.Time) { r.AdmissionDate = t }},
		{domain.ColDischargeDate,
			func(r *domain.PatientRecord) *time.Time { return r.DischargeDate },
			func(r *domain.PatientRecord, t *time.Time) { r.DischargeDate = t }},
	}

	for _, col := range columns {
		observed := 0
		for i := range records {
			if col.get(&records[i]) != nil {
				observed++
			}
		}
		if observed == 0 {
			im.markDegenerate(col.column, report)
			continue
		}

		filled := 0

		var last *time.Time
		for i := range records {
			if v := col.get(&records[i]); v != nil {
				last = v
			} else if last != nil {
				t := *last
				col.set(&records[i], &t)
				filled++
			}
		}

		// Rows before the first observed value only a backward pass can fill.
		var next *time.Time
		for i := len(records) - 1; i >= 0; i-- {
			if v := col.get(&records[i]); v != nil {
				next = v
			} else if next != nil {
				t := *next
				col.set(&records[i], &t)
				filled++
			}
		}

		im.recordFilled(col.column, StrategyFill, filled, report)
	}

	for i := range records {
		if swapDatesIfInverted(&records[i]) {
			report.DatesReordered++
			im.metrics.IncDatesSwapped()
		}
	}
}

func (im *Imputer) recordFilled(column, strategy string, filled int, report *ImputeReport) {
	if filled == 0 {
		return
	}
	report.Filled[column] += filled
	im.metrics.AddImputed(column, strategy, filled)
}

func (im *Imputer) markDegenerate(column string, report *ImputeReport) {
	report.Degenerate = append(report.Degenerate, column)
	im.logger.Warn("column has no observed values, leaving missing",
		slog.String("column", column))
}
