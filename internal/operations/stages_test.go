package operations

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcli/internal/config"
	"medcli/internal/dataprocessing"
	"medcli/internal/exporter"
	"medcli/internal/metrics"
	"medcli/internal/shared/testutil"
	"medcli/internal/validation"
	"medcli/pkg/contracts/domain"
)

// fixtureCSV holds one exact duplicate, one row with inverted dates and a
// negative billing amount, and one row with a missing age and a NaN gender.
const fixtureCSV = `Name,Age,Gender,Blood Type,Medical Condition,Date of Admission,Doctor,Hospital,Insurance Provider,Billing Amount,Room Number,Admission Type,Discharge Date,Medication,Test Results
bobby jackSon,30,Male,B-,Cancer,2024-01-31,Matthew Smith,Sons and Miller,blue cross,18856.28,328,Urgent,2024-02-02,Paracetamol,Normal
bobby jackSon,30,Male,B-,Cancer,2024-01-31,Matthew Smith,Sons and Miller,blue cross,18856.28,328,Urgent,2024-02-02,Paracetamol,Normal
leslie terry,62,Male,A+,Obesity,2024-03-10,Samantha Davies,Kim Inc,Medicare,-500,265,Emergency,2024-03-05,Ibuprofen,Inconclusive
danny smith,NaN,Nan,O+,Asthma,2024-06-01,paul baker,Cook PLC,Aetna,1500,101,Elective,2024-06-04,Aspirin,Normal
`

// newPipelineManager wires the real cleaning components into a manager, the
// same way the CLI entrypoint does.
func newPipelineManager(t *testing.T, paths *config.Paths) *Manager {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	collector := metrics.NewCollector("test")
	cfg := config.Default()

	recordValidator, err := validation.NewRecordValidator(logger)
	require.NoError(t, err)

	m := NewManager(nil, logger, nil, collector)

	steps := []Step{
		NewLoadStage(dataprocessing.NewLoader(logger, collector), validation.NewFileValidator(logger), logger),
		NewDeduplicateStage(dataprocessing.NewDeduplicator(logger, collector), logger),
		NewNormalizeStage(dataprocessing.NewNormalizer(logger, collector), logger),
		NewDatesStage(dataprocessing.NewDateRepairer(logger, collector), logger),
		NewNumericStage(dataprocessing.NewNumericSanitizer(logger, collector, cfg.Pipeline), logger),
		NewImputeStage(dataprocessing.NewImputer(logger, collector), logger),
		NewFeaturesStage(dataprocessing.NewFeatureEngineer(logger), logger),
		NewExportStage(
			exporter.NewRecordExporter(paths, logger, collector, cfg.Pipeline.EmitBOM),
			dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{}),
			recordValidator,
			paths,
			logger,
		),
	}
	for _, step := range steps {
		require.NoError(t, m.RegisterStage(step))
	}
	return m
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	out := t.TempDir()
	return &config.Paths{
		OutputDir:     out,
		CleanedCSV:    filepath.Join(out, "cleaned_admissions.csv"),
		MLReadyCSV:    filepath.Join(out, "ml_ready_admissions.csv"),
		SummaryFile:   filepath.Join(out, "cleaning_summary.txt"),
		MLSummaryFile: filepath.Join(out, "ml_ready_summary.txt"),
	}
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admissions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPipelineEndToEnd(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:        "run-e2e",
		InputPath: writeFixture(t, fixtureCSV),
	})
	require.NoError(t, err)

	require.Equal(t, OperationStatusCompleted, resp.Status)
	require.Len(t, resp.Steps, 8)
	for id, step := range resp.Steps {
		assert.Equalf(t, StepStatusCompleted, step.Status, "step %s", id)
	}

	cleaned := readCSV(t, paths.CleanedCSV)
	require.Len(t, cleaned, 4, "header plus three rows after deduplication")
	assert.Equal(t, domain.CleanedColumns(), cleaned[0])

	// Inverted dates swapped, negative billing flipped, stay length derived.
	leslie := cleaned[2]
	assert.Equal(t, "Leslie Terry", leslie[0])
	assert.Equal(t, "2024-03-05", leslie[5], "admission takes the earlier date")
	assert.Equal(t, "2024-03-10", leslie[12], "discharge takes the later date")
	assert.Equal(t, "500.00", leslie[9])
	assert.Equal(t, "5", leslie[15])
	assert.Equal(t, string(domain.AgeGroupMiddleAge), leslie[16])
	assert.Equal(t, string(domain.BillingLow), leslie[17])

	// Text normalization on the surviving duplicate.
	bobby := cleaned[1]
	assert.Equal(t, "Bobby Jackson", bobby[0])
	assert.Equal(t, "Blue Cross", bobby[8])
	assert.Equal(t, "2", bobby[15])
	assert.Equal(t, string(domain.AgeGroupYoungAdult), bobby[16])
	assert.Equal(t, string(domain.BillingVeryHigh), bobby[17])

	// Missing age imputed with the column mean, NaN gender with the mode.
	danny := cleaned[3]
	assert.Equal(t, "Danny Smith", danny[0])
	assert.Equal(t, "46", danny[1], "mean of 30 and 62")
	assert.Equal(t, "Male", danny[2])
	assert.Equal(t, "Paul Baker", danny[6])
	assert.Equal(t, string(domain.AgeGroupAdult), danny[16])

	mlReady := readCSV(t, paths.MLReadyCSV)
	require.Len(t, mlReady, 4)
	assert.Equal(t, domain.MLReadyColumns(), mlReady[0])
	assert.NotContains(t, mlReady[0], domain.ColName, "names never reach the ML artifact")

	summary, err := os.ReadFile(paths.SummaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "duplicates removed: 1")
	assert.Contains(t, string(summary), "written (cleaned):  3")

	_, err = os.Stat(paths.MLSummaryFile)
	require.NoError(t, err)
}

func TestPipelineSingleLoadStep(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:         "run-load-only",
		InputPath:  writeFixture(t, fixtureCSV),
		Parameters: map[string]interface{}{ContextKeyStep: StageIDLoad},
	})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, StepStatusCompleted, resp.Steps[StageIDLoad].Status)

	// No export step ran, so no artifacts.
	_, err = os.Stat(paths.CleanedCSV)
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineRejectsMissingInputFile(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:        "run-missing",
		InputPath: filepath.Join(t.TempDir(), "absent.csv"),
	})

	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDLoad].Status)
}

func TestPipelineRejectsUnknownColumns(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	badCSV := "Patient,Years\nBobby,30\n"
	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:        "run-schema",
		InputPath: writeFixture(t, badCSV),
	})

	require.Error(t, err)
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps[StageIDLoad].Status)
	for _, id := range []string{StageIDDeduplicate, StageIDNormalize, StageIDDates, StageIDNumeric, StageIDImpute, StageIDFeatures, StageIDExport} {
		assert.Equalf(t, StepStatusSkipped, resp.Steps[id].Status, "step %s", id)
	}
}

func TestPipelineRejectsUnsupportedExtension(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	path := filepath.Join(t.TempDir(), "admissions.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a table"), 0644))

	_, err := m.Execute(context.Background(), OperationRequest{ID: "run-txt", InputPath: path})

	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestMidPipelineStepRequiresRecords(t *testing.T) {
	paths := testPaths(t)
	m := newPipelineManager(t, paths)

	// Running a mid-pipeline step alone has no record slice to work on.
	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:         "run-impute-only",
		InputPath:  writeFixture(t, fixtureCSV),
		Parameters: map[string]interface{}{ContextKeyStep: StageIDImpute},
	})

	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Contains(t, err.Error(), "no records loaded")
	assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDImpute].Status)
}

func TestStageConstructorsDeclareDependencies(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		step Step
		id   string
		deps []string
	}{
		{NewLoadStage(nil, nil, logger), StageIDLoad, []string{}},
		{NewDeduplicateStage(nil, logger), StageIDDeduplicate, []string{StageIDLoad}},
		{NewNormalizeStage(nil, logger), StageIDNormalize, []string{StageIDDeduplicate}},
		{NewDatesStage(nil, logger), StageIDDates, []string{StageIDNormalize}},
		{NewNumericStage(nil, logger), StageIDNumeric, []string{StageIDDates}},
		{NewImputeStage(nil, logger), StageIDImpute, []string{StageIDNumeric}},
		{NewFeaturesStage(nil, logger), StageIDFeatures, []string{StageIDImpute}},
		{NewExportStage(nil, nil, nil, nil, logger), StageIDExport, []string{StageIDFeatures}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.id, tt.step.ID())
			assert.Equal(t, tt.deps, tt.step.Dependencies())
			assert.NotEmpty(t, tt.step.Name())
		})
	}
}
