package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"medcli/pkg/contracts/domain"
)

// FeatureReport describes the derived-column computation.
type FeatureReport struct {
	LengthOfStaySet   int
	Quartiles         [3]float64     // 25th, 50th, 75th billing percentiles
	AgeGroups         map[string]int // label -> rows
	BillingCategories map[string]int // label -> rows
}

// FeatureEngineer derives the three output-only columns: length_of_stay,
// age_group and billing_category. The billing quartiles are empirical and
// computed over the whole table, so this stage runs once, after every
// row-level correction, never per row.
type FeatureEngineer struct {
	logger *slog.Logger
}

// NewFeatureEngineer creates a FeatureEngineer.
func NewFeatureEngineer(logger *slog.Logger) *FeatureEngineer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureEngineer{logger: logger}
}

// Derive populates the derived columns in place.
func (f *FeatureEngineer) Derive(ctx context.Context, records []domain.PatientRecord) *FeatureReport {
	report := &FeatureReport{
		AgeGroups:         make(map[string]int),
		BillingCategories: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	amounts := make([]float64, 0, len(records))

	for i := range records {
		rec := &records[i]

		if rec.AdmissionDate != nil && rec.DischargeDate != nil {
			rec.LengthOfStay = domain.IntPtr(lengthOfStayDays(*rec.AdmissionDate, *rec.DischargeDate))
			report.LengthOfStaySet++
		}

		if rec.Age != nil {
			group := domain.AgeGroupFor(*rec.Age)
			rec.AgeGroup = group
			report.AgeGroups[string(group)]++
		}

		if rec.BillingAmount != nil {
			amounts = append(amounts, *rec.BillingAmount)
		}
	}

	if len(amounts) > 0 {
		sort.Float64s(amounts)
		q1 := percentile(amounts, 25)
		q2 := percentile(amounts, 50)
		q3 := percentile(amounts, 75)
		report.Quartiles = [3]float64{q1, q2, q3}

		for i := range records {
			if records[i].BillingAmount == nil {
				continue
			}
			category := billingCategoryFor(*records[i].BillingAmount, q1, q2, q3)
			records[i].BillingCategory = category
			report.BillingCategories[string(category)]++
		}
	}

	f.logger.InfoContext(ctx, "feature derivation complete",
		slog.Int("rows", len(records)),
		slog.Int("length_of_stay_set", report.LengthOfStaySet),
		slog.Float64("billing_q1", report.Quartiles[0]),
		slog.Float64("billing_q2", report.Quartiles[1]),
		slog.Float64("billing_q3", report.Quartiles[2]))

	return report
}

// billingCategoryFor buckets an amount by the table quartiles. Buckets are
// lower-bound inclusive: an amount equal to a boundary falls into the
// bucket above it.
func billingCategoryFor(v, q1, q2, q3 float64) domain.BillingCategory {
	switch {
	case v < q1:
		return domain.BillingLow
	case v < q2:
		return domain.BillingMedium
	case v < q3:
		return domain.BillingHigh
	default:
		return domain.BillingVeryHigh
	}
}
