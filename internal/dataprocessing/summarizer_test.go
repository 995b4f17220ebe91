package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcli/pkg/contracts/domain"
)

func TestNewSummarizer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SummarizerConfig
		wantFmt string
	}{
		{name: "defaults", cfg: SummarizerConfig{}, wantFmt: domain.DateFormat},
		{name: "custom format", cfg: SummarizerConfig{DateFormat: "02/01/2006"}, wantFmt: "02/01/2006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummarizer(nil, tt.cfg)
			assert.NotNil(t, s)
			assert.Equal(t, tt.wantFmt, s.dateFormat)
			assert.NotNil(t, s.logger)
		})
	}
}

func testRunReport(t *testing.T) *RunReport {
	t.Helper()
	started := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	return &RunReport{
		SourcePath: "data/healthcare_dataset.csv",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Load: &LoadResult{
			RowsParsed:       6,
			RowsSkipped:      1,
			CoercionWarnings: map[string]int{domain.ColAge: 2},
		},
		DuplicatesRemoved: 1,
		Normalize: &NormalizeReport{
			FieldsChanged: map[string]int{domain.ColName: 5},
			Warnings:      map[string]int{domain.ColBloodType: 1},
		},
		Dates: &DateRepairReport{Swapped: 2},
		Numeric: &NumericReport{
			NegativeBillingFlipped: 1,
			AgesOutOfRange:         1,
		},
		Impute: &ImputeReport{
			Filled: map[string]int{
				domain.ColAge: 2,
			},
			Strategies: map[string]string{
				domain.ColAge:        StrategyMean,
				domain.ColMedication: StrategyNone,
			},
		},
		Features: &FeatureReport{
			Quartiles:         [3]float64{100, 200, 300},
			AgeGroups:         map[string]int{string(domain.AgeGroupAdult): 5},
			BillingCategories: map[string]int{string(domain.BillingLow): 2, string(domain.BillingHigh): 3},
		},
		RowsWritten:   5,
		MLRowsWritten: 5,
	}
}

func TestWriteSummary(t *testing.T) {
	records := []domain.PatientRecord{
		{Name: "Bobby Jackson", Age: domain.IntPtr(30)},
		{Name: "Leslie Terry", Age: domain.IntPtr(62), Medication: "Ibuprofen"},
	}

	s := NewSummarizer(nil, SummarizerConfig{})
	path := filepath.Join(t.TempDir(), "out", "cleaning_summary.txt")

	err := s.WriteSummary(context.Background(), path, testRunReport(t), records)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "cleaning summary")
	assert.Contains(t, text, "source: data/healthcare_dataset.csv")
	assert.Regexp(t, `loaded:\s+6`, text)
	assert.Regexp(t, `duplicates removed:\s+1`, text)
	assert.Regexp(t, `written \(cleaned\):\s+5`, text)
	assert.Regexp(t, `date pairs swapped:\s+2`, text)
	assert.Regexp(t, `negative billing flipped:\s+1`, text)
	assert.Contains(t, text, "2 filled (mean)")
	assert.Contains(t, text, "left missing")
	assert.Contains(t, text, "q1=100.00 q2=200.00 q3=300.00")
	assert.Contains(t, text, domain.ColLengthOfStay)

	// One record has no medication; the count shows up in the missing section.
	assert.Contains(t, text, "missing values after cleaning")
	assert.Contains(t, text, domain.ColMedication)
}

func TestWriteMLSummary(t *testing.T) {
	records := []domain.PatientRecord{
		{Age: domain.IntPtr(30), Medication: "Paracetamol"},
		{Age: domain.IntPtr(62)},
	}

	s := NewSummarizer(nil, SummarizerConfig{})
	path := filepath.Join(t.TempDir(), "out", "ml_ready_summary.txt")

	err := s.WriteMLSummary(context.Background(), path, records)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "ml-ready dataset")
	assert.Contains(t, text, "rows: 2")
	assert.Contains(t, text, "dropped: Name")
	assert.NotContains(t, text, "\n  Name\n", "the Name column must not be listed")
	assert.Contains(t, text, domain.ColAgeGroup)
}

func TestMissingByColumn(t *testing.T) {
	records := []domain.PatientRecord{
		{Name: "Bobby", Age: domain.IntPtr(30), AdmissionDate: day(t, "2024-01-31")},
		{},
	}

	missing := missingByColumn(records)

	assert.Equal(t, 1, missing[domain.ColName])
	assert.Equal(t, 1, missing[domain.ColAge])
	assert.Equal(t, 1, missing[domain.ColAdmissionDate])
	assert.Equal(t, 2, missing[domain.ColGender])
	assert.Equal(t, 2, missing[domain.ColLengthOfStay])
}
