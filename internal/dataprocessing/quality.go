package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"medcli/internal/config"
	"medcli/internal/errors"
	"medcli/pkg/contracts/domain"
)

// ValueCount pairs a categorical value with its frequency.
type ValueCount struct {
	Value string
	Count int
}

// ColumnProfile summarizes one column of the table.
type ColumnProfile struct {
	Name     string
	Kind     string // numeric, date or text
	Missing  int
	Distinct int

	// Numeric columns only
	Min      float64
	Max      float64
	Mean     float64
	Outliers int // beyond 1.5 IQR of the quartiles

	// Date columns only
	Earliest string
	Latest   string

	// Text columns only
	TopValues []ValueCount
}

// Profiler computes per-column quality statistics. It is used standalone
// against raw input to size up a dataset before cleaning, and against the
// cleaned table to document what a run produced.
type Profiler struct {
	logger *slog.Logger
	topN   int
}

// NewProfiler creates a Profiler reporting the five most frequent values
// per text column.
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{logger: logger, topN: 5}
}

// Profile computes a profile for every column present in the records. The
// derived columns are included only once something populated them.
func (p *Profiler) Profile(ctx context.Context, records []domain.PatientRecord) []ColumnProfile {
	p.logger.InfoContext(ctx, "profiling table", slog.Int("rows", len(records)))

	profiles := []ColumnProfile{
		p.profileText(domain.ColName, records, func(r *domain.PatientRecord) string { return r.Name }),
		p.profileNumeric(domain.ColAge, records, func(r *domain.PatientRecord) (float64, bool) {
			if r.Age == nil {
				return 0, false
			}
			return float64(*r.Age), true
		}),
		p.profileText(domain.ColGender, records, func(r *domain.PatientRecord) string { return string(r.Gender) }),
		p.profileText(domain.ColBloodType, records, func(r *domain.PatientRecord) string { return string(r.BloodType) }),
		p.profileText(domain.ColMedicalCondition, records, func(r *domain.PatientRecord) string { return r.MedicalCondition }),
		p.profileDate(domain.ColAdmissionDate, records, func(r *domain.PatientRecord) *time.Time { return r.AdmissionDate }),
		p.profileText(domain.ColDoctor, records, func(r *domain.PatientRecord) string { return r.Doctor }),
		p.profileText(domain.ColHospital, records, func(r *domain.PatientRecord) string { return r.Hospital }),
		p.profileText(domain.ColInsuranceProvider, records, func(r *domain.PatientRecord) string { return r.InsuranceProvider }),
		p.profileNumeric(domain.ColBillingAmount, records, func(r *domain.PatientRecord) (float64, bool) {
			if r.BillingAmount == nil {
				return 0, false
			}
			return *r.BillingAmount, true
		}),
		p.profileNumeric(domain.ColRoomNumber, records, func(r *domain.PatientRecord) (float64, bool) {
			if r.RoomNumber == nil {
				return 0, false
			}
			return float64(*r.RoomNumber), true
		}),
		p.profileText(domain.ColAdmissionType, records, func(r *domain.PatientRecord) string { return string(r.AdmissionType) }),
		p.profileDate(domain.ColDischargeDate, records, func(r *domain.PatientRecord) *time.Time { return r.DischargeDate }),
		p.profileText(domain.ColMedication, records, func(r *domain.PatientRecord) string { return r.Medication }),
		p.profileText(domain.ColTestResults, records, func(r *domain.PatientRecord) string { return string(r.TestResults) }),
	}

	if hasDerived(records) {
		profiles = append(profiles,
			p.profileNumeric(domain.ColLengthOfStay, records, func(r *domain.PatientRecord) (float64, bool) {
				if r.LengthOfStay == nil {
					return 0, false
				}
				return float64(*r.LengthOfStay), true
			}),
			p.profileText(domain.ColAgeGroup, records, func(r *domain.PatientRecord) string { return string(r.AgeGroup) }),
			p.profileText(domain.ColBillingCategory, records, func(r *domain.PatientRecord) string { return string(r.BillingCategory) }),
		)
	}

	return profiles
}

// WriteReport serializes column profiles to a plain-text artifact.
func (p *Profiler) WriteReport(ctx context.Context, path string, profiles []ColumnProfile, rows int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIOError("failed to create report directory", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s data quality report\n", config.AppName)
	fmt.Fprintf(&b, "generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "rows: %d\n", rows)
	fmt.Fprintf(&b, "columns: %d\n\n", len(profiles))

	for _, cp := range profiles {
		fmt.Fprintf(&b, "%s (%s)\n", cp.Name, cp.Kind)
		fmt.Fprintf(&b, "  missing:  %d\n", cp.Missing)
		fmt.Fprintf(&b, "  distinct: %d\n", cp.Distinct)

		switch cp.Kind {
		case "numeric":
			fmt.Fprintf(&b, "  min=%.2f max=%.2f mean=%.2f\n", cp.Min, cp.Max, cp.Mean)
			fmt.Fprintf(&b, "  iqr outliers: %d\n", cp.Outliers)
		case "date":
			fmt.Fprintf(&b, "  earliest=%s latest=%s\n", cp.Earliest, cp.Latest)
		default:
			if len(cp.TopValues) > 0 {
				parts := make([]string, len(cp.TopValues))
				for i, vc := range cp.TopValues {
					parts[i] = fmt.Sprintf("%s (%d)", vc.Value, vc.Count)
				}
				fmt.Fprintf(&b, "  top: %s\n", strings.Join(parts, ", "))
			}
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.NewIOError("failed to write quality report", path, err)
	}

	p.logger.InfoContext(ctx, "quality report written", slog.String("path", path))
	return nil
}

func (p *Profiler) profileNumeric(name string, records []domain.PatientRecord, get func(*domain.PatientRecord) (float64, bool)) ColumnProfile {
	cp := ColumnProfile{Name: name, Kind: "numeric"}

	values := make([]float64, 0, len(records))
	distinct := make(map[float64]struct{})
	for i := range records {
		v, ok := get(&records[i])
		if !ok {
			cp.Missing++
			continue
		}
		values = append(values, v)
		distinct[v] = struct{}{}
	}
	cp.Distinct = len(distinct)

	if len(values) == 0 {
		return cp
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	cp.Min = sorted[0]
	cp.Max = sorted[len(sorted)-1]
	cp.Mean = calculateMean(values)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1
	lowFence := q1 - 1.5*iqr
	highFence := q3 + 1.5*iqr
	for _, v := range values {
		if v < lowFence || v > highFence {
			cp.Outliers++
		}
	}

	return cp
}

func (p *Profiler) profileDate(name string, records []domain.PatientRecord, get func(*domain.PatientRecord) *time.Time) ColumnProfile {
	cp := ColumnProfile{Name: name, Kind: "date"}

	distinct := make(map[time.Time]struct{})
	var earliest, latest *time.Time
	for i := range records {
		v := get(&records[i])
		if v == nil {
			cp.Missing++
			continue
		}
		distinct[*v] = struct{}{}
		if earliest == nil || v.Before(*earliest) {
			earliest = v
		}
		if latest == nil || v.After(*latest) {
			latest = v
		}
	}
	cp.Distinct = len(distinct)

	if earliest != nil {
		cp.Earliest = earliest.Format(domain.DateFormat)
		cp.Latest = latest.Format(domain.DateFormat)
	}

	return cp
}

func (p *Profiler) profileText(name string, records []domain.PatientRecord, get func(*domain.PatientRecord) string) ColumnProfile {
	cp := ColumnProfile{Name: name, Kind: "text"}

	counts := make(map[string]int)
	for i := range records {
		v := get(&records[i])
		if v == "" {
			cp.Missing++
			continue
		}
		counts[v]++
	}
	cp.Distinct = len(counts)

	top := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		top = append(top, ValueCount{Value: v, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Value < top[j].Value
	})
	if len(top) > p.topN {
		top = top[:p.topN]
	}
	cp.TopValues = top

	return cp
}

func hasDerived(records []domain.PatientRecord) bool {
	for i := range records {
		if records[i].LengthOfStay != nil || records[i].AgeGroup != "" || records[i].BillingCategory != "" {
			return true
		}
	}
	return false
}
