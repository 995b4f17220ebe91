package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medcli/internal/config"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// corporateSuffixes maps lowercased hospital-name suffixes to their
// conventional casing.
var corporateSuffixes = map[string]string{
	"plc": "PLC",
	"llc": "LLC",
	"ltd": "Ltd",
	"inc": "Inc",
}

// NormalizeReport counts what the Normalizer rewrote, per column.
type NormalizeReport struct {
	FieldsChanged map[string]int // column -> values rewritten
	Warnings      map[string]int // column -> out-of-domain values made missing
}

// TotalChanged returns the number of rewritten values.
func (r *NormalizeReport) TotalChanged() int {
	total := 0
	for _, n := range r.FieldsChanged {
		total += n
	}
	return total
}

// TotalWarnings returns the number of out-of-domain values made missing.
func (r *NormalizeReport) TotalWarnings() int {
	total := 0
	for _, n := range r.Warnings {
		total += n
	}
	return total
}

// Normalizer canonicalizes text fields: casing, whitespace, trailing
// punctuation, and the closed categorical domains. Values that cannot be
// mapped into their domain become missing, never a look-alike string.
type Normalizer struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	title   cases.Caser
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *slog.Logger, collector *metrics.Collector) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &Normalizer{
		logger:  logger,
		metrics: collector,
		title:   cases.Title(language.English),
	}
}

// Normalize rewrites the text fields of every record in place and returns
// per-column change counts.
func (n *Normalizer) Normalize(ctx context.Context, records []domain.PatientRecord) *NormalizeReport {
	report := &NormalizeReport{
		FieldsChanged: make(map[string]int),
		Warnings:      make(map[string]int),
	}

	for i := range records {
		rec := &records[i]

		n.setField(report, domain.ColName, &rec.Name, n.normalizeName(rec.Name))
		n.setField(report, domain.ColDoctor, &rec.Doctor, n.normalizeName(rec.Doctor))
		n.setField(report, domain.ColHospital, &rec.Hospital, normalizeHospital(rec.Hospital))
		n.setField(report, domain.ColMedicalCondition, &rec.MedicalCondition, n.normalizeTitled(rec.MedicalCondition))
		n.setField(report, domain.ColMedication, &rec.Medication, n.normalizeTitled(rec.Medication))
		n.setField(report, domain.ColInsuranceProvider, &rec.InsuranceProvider, n.normalizeTitled(rec.InsuranceProvider))

		rec.Gender = domain.Gender(n.normalizeDomain(report, domain.ColGender, string(rec.Gender),
			func(s string) (string, bool) {
				v, ok := domain.CanonicalGender(s)
				return string(v), ok
			}))

		rec.BloodType = domain.BloodType(n.normalizeDomain(report, domain.ColBloodType, string(rec.BloodType),
			func(s string) (string, bool) {
				v, ok := domain.CanonicalBloodType(s)
				return string(v), ok
			}))

		rec.AdmissionType = domain.AdmissionType(n.normalizeDomain(report, domain.ColAdmissionType, string(rec.AdmissionType),
			func(s string) (string, bool) {
				v, ok := domain.CanonicalAdmissionType(s)
				return string(v), ok
			}))

		rec.TestResults = domain.TestResult(n.normalizeDomain(report, domain.ColTestResults, string(rec.TestResults),
			func(s string) (string, bool) {
				v, ok := domain.CanonicalTestResult(s)
				return string(v), ok
			}))
	}

	n.logger.InfoContext(ctx, "normalization complete",
		slog.Int("rows", len(records)),
		slog.Int("fields_changed", report.TotalChanged()),
		slog.Int("warnings", report.TotalWarnings()))

	return report
}

// setField replaces a free-text field when the normalized form differs.
func (n *Normalizer) setField(report *NormalizeReport, column string, field *string, normalized string) {
	if *field != normalized {
		report.FieldsChanged[column]++
		*field = normalized
	}
}

// normalizeDomain canonicalizes a closed-domain value. Placeholders such as
// "NaN" become missing quietly; any other unmappable value becomes missing
// and is counted as a coercion warning.
func (n *Normalizer) normalizeDomain(report *NormalizeReport, column, raw string, canon func(string) (string, bool)) string {
	if isMissingToken(raw) {
		if raw != "" {
			report.FieldsChanged[column]++
		}
		return ""
	}

	if v, ok := canon(raw); ok {
		if v != raw {
			report.FieldsChanged[column]++
		}
		return v
	}

	report.FieldsChanged[column]++
	report.Warnings[column]++
	n.metrics.IncCoercionWarning(column)
	n.logger.Debug("out-of-domain value made missing",
		slog.String("column", column),
		slog.String("value", raw))
	return ""
}

// normalizeName title-cases a person's name, keeping Mc/Mac prefixes as a
// capitalized unit ("dr. sarah mcconnell" -> "Dr. Sarah McConnell").
func (n *Normalizer) normalizeName(raw string) string {
	s := normalizeText(raw)
	if s == "" {
		return ""
	}

	s = n.title.String(s)

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = fixNamePrefix(w)
	}
	return strings.Join(words, " ")
}

// fixNamePrefix restores the inner capital that plain title-casing loses on
// Mc/Mac surnames. Short tokens like "Macy" are left alone.
func fixNamePrefix(word string) string {
	switch {
	case len(word) > 2 && strings.HasPrefix(word, "Mc"):
		return "Mc" + strings.ToUpper(word[2:3]) + word[3:]
	case len(word) > 4 && strings.HasPrefix(word, "Mac"):
		return "Mac" + strings.ToUpper(word[3:4]) + word[4:]
	}
	return word
}

// normalizeHospital trims trailing punctuation and fixes the casing of
// corporate suffixes mangled upstream ("Smith Plc," -> "Smith PLC").
func normalizeHospital(raw string) string {
	s := normalizeText(raw)
	s = strings.TrimRight(s, ".,; ")
	if s == "" {
		return ""
	}

	words := strings.Fields(s)
	for i, w := range words {
		if fixed, ok := corporateSuffixes[strings.ToLower(w)]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}

// normalizeText collapses runs of whitespace and converts NaN placeholders
// to a real missing value.
func normalizeText(raw string) string {
	if isMissingToken(raw) {
		return ""
	}
	return strings.Join(strings.Fields(raw), " ")
}

// normalizeTitled is normalizeText plus title-casing, for label columns
// where "cancer" and "Cancer" must group together.
func (n *Normalizer) normalizeTitled(raw string) string {
	s := normalizeText(raw)
	if s == "" {
		return ""
	}
	return n.title.String(s)
}
