package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"medcli/internal/config"
	"medcli/internal/dataprocessing"
	"medcli/internal/exporter"
	"medcli/internal/validation"
	"medcli/pkg/contracts/domain"
)

// recordsFromState pulls the working record slice out of the operation
// context. Every step after loading consumes and republishes this slice.
func recordsFromState(state *OperationState, stageID string) ([]domain.PatientRecord, error) {
	val, ok := state.GetContext(ContextKeyRecords)
	if !ok {
		return nil, NewValidationError(stageID, "no records in operation context")
	}
	records, ok := val.([]domain.PatientRecord)
	if !ok {
		return nil, NewValidationError(stageID, fmt.Sprintf("unexpected records type %T in operation context", val))
	}
	return records, nil
}

// reportFromState pulls the run report that the load step seeded.
func reportFromState(state *OperationState, stageID string) (*dataprocessing.RunReport, error) {
	val, ok := state.GetContext(ContextKeyRunReport)
	if !ok {
		return nil, NewValidationError(stageID, "no run report in operation context")
	}
	report, ok := val.(*dataprocessing.RunReport)
	if !ok {
		return nil, NewValidationError(stageID, fmt.Sprintf("unexpected report type %T in operation context", val))
	}
	return report, nil
}

// rowCountFromState reports how many records are currently in flight.
// Used for span attributes only, so absence counts as zero.
func rowCountFromState(state *OperationState) int64 {
	val, ok := state.GetContext(ContextKeyRecords)
	if !ok {
		return 0
	}
	records, ok := val.([]domain.PatientRecord)
	if !ok {
		return 0
	}
	return int64(len(records))
}

// requireRecords is the shared Validate body for every step that consumes
// the record slice.
func requireRecords(state *OperationState) error {
	if _, ok := state.GetContext(ContextKeyRecords); !ok {
		return fmt.Errorf("no records loaded; run the %s step first", StageIDLoad)
	}
	return nil
}

// LoadStage reads the raw admissions file into memory and seeds the run
// report every later step appends to.
type LoadStage struct {
	BaseStage
	loader    *dataprocessing.Loader
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewLoadStage creates a new load Step
func NewLoadStage(loader *dataprocessing.Loader, fileValidator *validation.FileValidator, logger *slog.Logger) *LoadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad, nil),
		loader:    loader,
		validator: fileValidator,
		logger:    logger.With(slog.String("step", StageIDLoad)),
	}
}

// Validate checks that the request named a readable input file
func (s *LoadStage) Validate(state *OperationState) error {
	path, err := inputPathFromConfig(state)
	if err != nil {
		return err
	}
	return s.validator.ValidateInputFile(path)
}

// Execute parses the input file and publishes the record slice
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	path, err := inputPathFromConfig(state)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "load step started",
		slog.String("operation_id", state.ID),
		slog.String("input_path", path))
	stepState.UpdateProgress(10, "reading input file")

	result, err := s.loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	report := &dataprocessing.RunReport{
		SourcePath: path,
		StartedAt:  state.StartTime,
		Load:       result,
	}

	state.SetContext(ContextKeyRecords, result.Records)
	state.SetContext(ContextKeyRunReport, report)

	stepState.UpdateProgress(100, fmt.Sprintf("loaded %d rows", len(result.Records)))
	return nil
}

// inputPathFromConfig resolves the input path placed on the request.
func inputPathFromConfig(state *OperationState) (string, error) {
	val, ok := state.GetConfig(ContextKeyInputPath)
	if !ok {
		return "", fmt.Errorf("no input path configured")
	}
	path, ok := val.(string)
	if !ok || strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("input path is empty")
	}
	return path, nil
}

// DeduplicateStage drops exact duplicate rows while keeping first
// occurrences in place.
type DeduplicateStage struct {
	BaseStage
	deduper *dataprocessing.Deduplicator
	logger  *slog.Logger
}

// NewDeduplicateStage creates a new duplicate removal Step
func NewDeduplicateStage(deduper *dataprocessing.Deduplicator, logger *slog.Logger) *DeduplicateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeduplicateStage{
		BaseStage: NewBaseStage(StageIDDeduplicate, StageNameDeduplicate, []string{StageIDLoad}),
		deduper:   deduper,
		logger:    logger.With(slog.String("step", StageIDDeduplicate)),
	}
}

// Validate checks that records are available
func (s *DeduplicateStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute removes exact duplicates and republishes the surviving rows
func (s *DeduplicateStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	deduped, removed := s.deduper.Dedupe(ctx, records)
	report.DuplicatesRemoved = removed
	state.SetContext(ContextKeyRecords, deduped)

	stepState.UpdateProgress(100, fmt.Sprintf("removed %d duplicate rows", removed))
	return nil
}

// NormalizeStage standardizes text fields and categorical domains in place.
type NormalizeStage struct {
	BaseStage
	normalizer *dataprocessing.Normalizer
	logger     *slog.Logger
}

// NewNormalizeStage creates a new field normalization Step
func NewNormalizeStage(normalizer *dataprocessing.Normalizer, logger *slog.Logger) *NormalizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizeStage{
		BaseStage:  NewBaseStage(StageIDNormalize, StageNameNormalize, []string{StageIDDeduplicate}),
		normalizer: normalizer,
		logger:     logger.With(slog.String("step", StageIDNormalize)),
	}
}

// Validate checks that records are available
func (s *NormalizeStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute normalizes every text and categorical field
func (s *NormalizeStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	report.Normalize = s.normalizer.Normalize(ctx, records)

	stepState.UpdateProgress(100, fmt.Sprintf("normalized %d fields", report.Normalize.TotalChanged()))
	return nil
}

// DatesStage restores admission/discharge ordering.
type DatesStage struct {
	BaseStage
	repairer *dataprocessing.DateRepairer
	logger   *slog.Logger
}

// NewDatesStage creates a new date logic repair Step
func NewDatesStage(repairer *dataprocessing.DateRepairer, logger *slog.Logger) *DatesStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatesStage{
		BaseStage: NewBaseStage(StageIDDates, StageNameDates, []string{StageIDNormalize}),
		repairer:  repairer,
		logger:    logger.With(slog.String("step", StageIDDates)),
	}
}

// Validate checks that records are available
func (s *DatesStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute swaps inverted admission/discharge pairs
func (s *DatesStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	report.Dates = s.repairer.Repair(ctx, records)

	stepState.UpdateProgress(100, fmt.Sprintf("swapped %d date pairs", report.Dates.Swapped))
	return nil
}

// NumericStage nulls impossible numeric values and repairs billing signs.
type NumericStage struct {
	BaseStage
	sanitizer *dataprocessing.NumericSanitizer
	logger    *slog.Logger
}

// NewNumericStage creates a new numeric sanitation Step
func NewNumericStage(sanitizer *dataprocessing.NumericSanitizer, logger *slog.Logger) *NumericStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &NumericStage{
		BaseStage: NewBaseStage(StageIDNumeric, StageNameNumeric, []string{StageIDDates}),
		sanitizer: sanitizer,
		logger:    logger.With(slog.String("step", StageIDNumeric)),
	}
}

// Validate checks that records are available
func (s *NumericStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute applies range checks and the billing sign flip
func (s *NumericStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	report.Numeric = s.sanitizer.Sanitize(ctx, records)

	stepState.UpdateProgress(100, fmt.Sprintf("flipped %d negative amounts", report.Numeric.NegativeBillingFlipped))
	return nil
}

// ImputeStage fills missing values using the per-column strategy table.
type ImputeStage struct {
	BaseStage
	imputer *dataprocessing.Imputer
	logger  *slog.Logger
}

// NewImputeStage creates a new missing value imputation Step
func NewImputeStage(imputer *dataprocessing.Imputer, logger *slog.Logger) *ImputeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImputeStage{
		BaseStage: NewBaseStage(StageIDImpute, StageNameImpute, []string{StageIDNumeric}),
		imputer:   imputer,
		logger:    logger.With(slog.String("step", StageIDImpute)),
	}
}

// Validate checks that records are available
func (s *ImputeStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute fills missing values column by column
func (s *ImputeStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	report.Impute = s.imputer.Impute(ctx, records)

	stepState.UpdateProgress(100, fmt.Sprintf("filled %d missing values", report.Impute.TotalFilled()))
	return nil
}

// FeaturesStage derives the ML columns from the cleaned table.
type FeaturesStage struct {
	BaseStage
	engineer *dataprocessing.FeatureEngineer
	logger   *slog.Logger
}

// NewFeaturesStage creates a new feature engineering Step
func NewFeaturesStage(engineer *dataprocessing.FeatureEngineer, logger *slog.Logger) *FeaturesStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeaturesStage{
		BaseStage: NewBaseStage(StageIDFeatures, StageNameFeatures, []string{StageIDImpute}),
		engineer:  engineer,
		logger:    logger.With(slog.String("step", StageIDFeatures)),
	}
}

// Validate checks that records are available
func (s *FeaturesStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute derives length_of_stay, age_group and billing_category
func (s *FeaturesStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	report.Features = s.engineer.Derive(ctx, records)

	stepState.UpdateProgress(100, fmt.Sprintf("derived features for %d rows", len(records)))
	return nil
}

// ExportStage validates the cleaned table and writes every artifact: the
// cleaned CSV, the ML-ready CSV and both run summaries.
type ExportStage struct {
	BaseStage
	exporter   *exporter.RecordExporter
	summarizer *dataprocessing.Summarizer
	validator  *validation.RecordValidator
	paths      *config.Paths
	logger     *slog.Logger
}

// NewExportStage creates a new artifact export Step
func NewExportStage(recordExporter *exporter.RecordExporter, summarizer *dataprocessing.Summarizer, recordValidator *validation.RecordValidator, paths *config.Paths, logger *slog.Logger) *ExportStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStage{
		BaseStage:  NewBaseStage(StageIDExport, StageNameExport, []string{StageIDFeatures}),
		exporter:   recordExporter,
		summarizer: summarizer,
		validator:  recordValidator,
		paths:      paths,
		logger:     logger.With(slog.String("step", StageIDExport)),
	}
}

// Validate checks that records are available
func (s *ExportStage) Validate(state *OperationState) error {
	return requireRecords(state)
}

// Execute checks the cleaned-table invariants and writes all artifacts
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	records, err := recordsFromState(state, s.ID())
	if err != nil {
		return err
	}
	report, err := reportFromState(state, s.ID())
	if err != nil {
		return err
	}

	// A violation here means an earlier step broke its contract, so the
	// run aborts rather than writing a bad artifact.
	stepState.UpdateProgress(10, "checking cleaned-table invariants")
	if err := s.validator.ValidateRecords(ctx, records); err != nil {
		return fmt.Errorf("cleaned table failed invariant check: %w", err)
	}

	stepState.UpdateProgress(30, "writing cleaned CSV")
	rows, err := s.exporter.ExportCleaned(ctx, s.paths.CleanedCSV, records)
	if err != nil {
		return fmt.Errorf("write cleaned CSV: %w", err)
	}
	report.RowsWritten = rows

	stepState.UpdateProgress(55, "writing ML-ready CSV")
	mlRows, err := s.exporter.ExportMLReady(ctx, s.paths.MLReadyCSV, records)
	if err != nil {
		return fmt.Errorf("write ML-ready CSV: %w", err)
	}
	report.MLRowsWritten = mlRows

	report.FinishedAt = time.Now()

	stepState.UpdateProgress(75, "writing run summaries")
	if err := s.summarizer.WriteSummary(ctx, s.paths.SummaryFile, report, records); err != nil {
		return fmt.Errorf("write summary %s: %w", s.paths.SummaryFile, err)
	}
	if err := s.summarizer.WriteMLSummary(ctx, s.paths.MLSummaryFile, records); err != nil {
		return fmt.Errorf("write ML summary %s: %w", s.paths.MLSummaryFile, err)
	}

	s.logger.InfoContext(ctx, "artifacts written",
		slog.String("operation_id", state.ID),
		slog.String("cleaned_csv", filepath.Base(s.paths.CleanedCSV)),
		slog.String("ml_ready_csv", filepath.Base(s.paths.MLReadyCSV)),
		slog.Int("rows", rows),
		slog.Int("ml_rows", mlRows))

	stepState.UpdateProgress(100, fmt.Sprintf("wrote %d cleaned rows", rows))
	return nil
}
