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

// RunReport aggregates every stage's bookkeeping for one pipeline run. The
// summarizer renders it; nothing downstream parses it back.
type RunReport struct {
	SourcePath string
	StartedAt  time.Time
	FinishedAt time.Time

	Load              *LoadResult
	DuplicatesRemoved int
	Normalize         *NormalizeReport
	Dates             *DateRepairReport
	Numeric           *NumericReport
	Impute            *ImputeReport
	Features          *FeatureReport

	RowsWritten   int
	MLRowsWritten int
}

// columnKinds lists the cleaned output schema with the dtype each column
// carries, in output order.
var columnKinds = []struct {
	Name string
	Kind string
}{
	{domain.ColName, "text"},
	{domain.ColAge, "numeric"},
	{domain.ColGender, "categorical"},
	{domain.ColBloodType, "categorical"},
	{domain.ColMedicalCondition, "text"},
	{domain.ColAdmissionDate, "date"},
	{domain.ColDoctor, "text"},
	{domain.ColHospital, "text"},
	{domain.ColInsuranceProvider, "text"},
	{domain.ColBillingAmount, "numeric"},
	{domain.ColRoomNumber, "numeric"},
	{domain.ColAdmissionType, "categorical"},
	{domain.ColDischargeDate, "date"},
	{domain.ColMedication, "text"},
	{domain.ColTestResults, "categorical"},
	{domain.ColLengthOfStay, "numeric (derived)"},
	{domain.ColAgeGroup, "categorical (derived)"},
	{domain.ColBillingCategory, "categorical (derived)"},
}

// Summarizer is the single source of truth for the run's textual summary
// artifacts: the full cleaning summary and the ML-ready sidecar.
type Summarizer struct {
	logger     *slog.Logger
	dateFormat string
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	DateFormat string // format for date strings in output
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = domain.DateFormat
	}
	return &Summarizer{logger: logger, dateFormat: cfg.DateFormat}
}

// WriteSummary renders the human-readable cleaning summary: row and column
// counts, dtypes, warning counts, per-stage corrections, the imputation
// table and remaining missing values.
func (s *Summarizer) WriteSummary(ctx context.Context, path string, report *RunReport, records []domain.PatientRecord) error {
	s.logger.InfoContext(ctx, "writing run summary",
		slog.String("path", path),
		slog.Int("rows", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIOError("failed to create summary directory", path, err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s cleaning summary\n", config.AppName)
	fmt.Fprintf(&b, "version: %s\n", config.AppVersion)
	fmt.Fprintf(&b, "source: %s\n", report.SourcePath)
	fmt.Fprintf(&b, "started: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "finished: %s\n", report.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %s\n\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

	b.WriteString("rows\n")
	if report.Load != nil {
		fmt.Fprintf(&b, "  loaded:             %d\n", report.Load.RowsParsed)
		fmt.Fprintf(&b, "  skipped at load:    %d\n", report.Load.RowsSkipped)
	}
	fmt.Fprintf(&b, "  duplicates removed: %d\n", report.DuplicatesRemoved)
	fmt.Fprintf(&b, "  written (cleaned):  %d\n", report.RowsWritten)
	fmt.Fprintf(&b, "  written (ml-ready): %d\n\n", report.MLRowsWritten)

	fmt.Fprintf(&b, "columns (%d)\n", len(columnKinds))
	for _, ck := range columnKinds {
		fmt.Fprintf(&b, "  %-20s %s\n", ck.Name, ck.Kind)
	}
	b.WriteString("\n")

	s.writeWarningSection(&b, report)
	s.writeCorrectionSection(&b, report)
	s.writeImputationSection(&b, report)
	s.writeMissingSection(&b, records)
	s.writeDistributionSection(&b, report)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.NewIOError("failed to write summary", path, err)
	}

	s.logger.InfoContext(ctx, "run summary written", slog.String("path", path))
	return nil
}

// WriteMLSummary renders the sidecar describing the ML-ready variant.
func (s *Summarizer) WriteMLSummary(ctx context.Context, path string, records []domain.PatientRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIOError("failed to create summary directory", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s ml-ready dataset\n", config.AppName)
	fmt.Fprintf(&b, "generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "rows: %d\n", len(records))
	fmt.Fprintf(&b, "columns: %d\n", len(domain.MLReadyColumns()))
	fmt.Fprintf(&b, "dropped: %s (PII minimization)\n\n", domain.ColName)

	b.WriteString("columns\n")
	for _, name := range domain.MLReadyColumns() {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	b.WriteString("\n")

	missing := missingByColumn(records)
	fmt.Fprintf(&b, "missing values\n")
	fmt.Fprintf(&b, "  %-20s %d (absence is meaningful, never imputed)\n", domain.ColMedication, missing[domain.ColMedication])
	b.WriteString("  all other columns: 0\n")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.NewIOError("failed to write ml-ready summary", path, err)
	}

	s.logger.InfoContext(ctx, "ml-ready summary written", slog.String("path", path))
	return nil
}

func (s *Summarizer) writeWarningSection(b *strings.Builder, report *RunReport) {
	if report.Load == nil {
		return
	}

	fmt.Fprintf(b, "coercion warnings (%d total)\n", report.Load.TotalWarnings()+totalOf(warningsOf(report)))
	for _, column := range sortedKeys(report.Load.CoercionWarnings) {
		fmt.Fprintf(b, "  %-20s %d at load\n", column, report.Load.CoercionWarnings[column])
	}
	if report.Normalize != nil {
		for _, column := range sortedKeys(report.Normalize.Warnings) {
			fmt.Fprintf(b, "  %-20s %d out-of-domain\n", column, report.Normalize.Warnings[column])
		}
	}
	for _, w := range report.Load.Warnings {
		fmt.Fprintf(b, "  sample: %s\n", w.Error())
	}
	b.WriteString("\n")
}

func (s *Summarizer) writeCorrectionSection(b *strings.Builder, report *RunReport) {
	b.WriteString("corrections\n")
	if report.Normalize != nil {
		fmt.Fprintf(b, "  fields normalized:        %d\n", report.Normalize.TotalChanged())
	}
	if report.Dates != nil {
		fmt.Fprintf(b, "  date pairs swapped:       %d\n", report.Dates.Swapped)
	}
	if report.Impute != nil {
		fmt.Fprintf(b, "  date pairs re-swapped:    %d\n", report.Impute.DatesReordered)
	}
	if report.Numeric != nil {
		fmt.Fprintf(b, "  negative billing flipped: %d\n", report.Numeric.NegativeBillingFlipped)
		fmt.Fprintf(b, "  billing capped:           %d\n", report.Numeric.BillingCapped)
		fmt.Fprintf(b, "  billing below minimum:    %d\n", report.Numeric.BillingBelowMin)
		fmt.Fprintf(b, "  ages out of range:        %d\n", report.Numeric.AgesOutOfRange)
		fmt.Fprintf(b, "  rooms out of range:       %d\n", report.Numeric.RoomsOutOfRange)
	}
	b.WriteString("\n")
}

func (s *Summarizer) writeImputationSection(b *strings.Builder, report *RunReport) {
	if report.Impute == nil {
		return
	}

	b.WriteString("imputation\n")
	for _, column := range sortedKeys(report.Impute.Strategies) {
		strategy := report.Impute.Strategies[column]
		if strategy == StrategyNone {
			fmt.Fprintf(b, "  %-20s left missing\n", column)
			continue
		}
		fmt.Fprintf(b, "  %-20s %d filled (%s)\n", column, report.Impute.Filled[column], strategy)
	}
	if len(report.Impute.Degenerate) > 0 {
		fmt.Fprintf(b, "  degenerate columns: %s\n", strings.Join(report.Impute.Degenerate, ", "))
	}
	b.WriteString("\n")
}

func (s *Summarizer) writeMissingSection(b *strings.Builder, records []domain.PatientRecord) {
	missing := missingByColumn(records)

	b.WriteString("missing values after cleaning\n")
	any := false
	for _, ck := range columnKinds {
		if n := missing[ck.Name]; n > 0 {
			fmt.Fprintf(b, "  %-20s %d\n", ck.Name, n)
			any = true
		}
	}
	if !any {
		b.WriteString("  none\n")
	}
	b.WriteString("\n")
}

func (s *Summarizer) writeDistributionSection(b *strings.Builder, report *RunReport) {
	if report.Features == nil {
		return
	}

	fmt.Fprintf(b, "billing quartiles\n")
	fmt.Fprintf(b, "  q1=%.2f q2=%.2f q3=%.2f\n\n", report.Features.Quartiles[0], report.Features.Quartiles[1], report.Features.Quartiles[2])

	b.WriteString("billing categories\n")
	writeDistribution(b, report.Features.BillingCategories)
	b.WriteString("\nage groups\n")
	writeDistribution(b, report.Features.AgeGroups)
}

func writeDistribution(b *strings.Builder, counts map[string]int) {
	total := 0
	for _, n := range counts {
		total += n
	}
	for _, label := range sortedKeys(counts) {
		pct := 0.0
		if total > 0 {
			pct = float64(counts[label]) / float64(total) * 100
		}
		fmt.Fprintf(b, "  %-20s %d (%.1f%%)\n", label, counts[label], pct)
	}
}

// missingByColumn counts missing values per column in the final table.
func missingByColumn(records []domain.PatientRecord) map[string]int {
	missing := make(map[string]int)
	for i := range records {
		rec := &records[i]
		if rec.Name == "" {
			missing[domain.ColName]++
		}
		if rec.Age == nil {
			missing[domain.ColAge]++
		}
		if rec.Gender == "" {
			missing[domain.ColGender]++
		}
		if rec.BloodType == "" {
			missing[domain.ColBloodType]++
		}
		if rec.MedicalCondition == "" {
			missing[domain.ColMedicalCondition]++
		}
		if rec.AdmissionDate == nil {
			missing[domain.ColAdmissionDate]++
		}
		if rec.Doctor == "" {
			missing[domain.ColDoctor]++
		}
		if rec.Hospital == "" {
			missing[domain.ColHospital]++
		}
		if rec.InsuranceProvider == "" {
			missing[domain.ColInsuranceProvider]++
		}
		if rec.BillingAmount == nil {
			missing[domain.ColBillingAmount]++
		}
		if rec.RoomNumber == nil {
			missing[domain.ColRoomNumber]++
		}
		if rec.AdmissionType == "" {
			missing[domain.ColAdmissionType]++
		}
		if rec.DischargeDate == nil {
			missing[domain.ColDischargeDate]++
		}
		if rec.Medication == "" {
			missing[domain.ColMedication]++
		}
		if rec.TestResults == "" {
			missing[domain.ColTestResults]++
		}
		if rec.LengthOfStay == nil {
			missing[domain.ColLengthOfStay]++
		}
		if rec.AgeGroup == "" {
			missing[domain.ColAgeGroup]++
		}
		if rec.BillingCategory == "" {
			missing[domain.ColBillingCategory]++
		}
	}
	return missing
}

func warningsOf(report *RunReport) map[string]int {
	if report.Normalize == nil {
		return nil
	}
	return report.Normalize.Warnings
}

func totalOf(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
