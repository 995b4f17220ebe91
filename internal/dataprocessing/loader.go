package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"

	"medcli/internal/config"
	"medcli/internal/errors"
	"medcli/internal/metrics"
	"medcli/pkg/contracts/domain"
)

// dateLayouts lists the formats accepted for admission and discharge dates,
// tried in order. The reference dataset uses the first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
}

// missingTokens are cell values treated as absent rather than as coercion
// failures. Matching is case-insensitive after trimming.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

// maxStoredWarnings caps how many coercion warnings are kept verbatim for
// the summary artifact. Counts are always complete.
const maxStoredWarnings = 25

// LoadResult carries the parsed table and the loader's bookkeeping.
type LoadResult struct {
	Records          []domain.PatientRecord
	RowsParsed       int
	RowsSkipped      int               // malformed rows and rows with the wrong field count
	CoercionWarnings map[string]int    // column name -> cells converted to missing
	Warnings         []*errors.AppError // first few coercion warnings, for the summary
	SourcePath       string
}

// TotalWarnings returns the number of cells that failed coercion.
func (r *LoadResult) TotalWarnings() int {
	total := 0
	for _, n := range r.CoercionWarnings {
		total += n
	}
	return total
}

// Loader reads a raw admissions file into memory. CSV is the primary
// format; XLSX exports are accepted as a convenience and go through the
// same row conversion.
type Loader struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger, collector *metrics.Collector) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector(config.AppVersion)
	}
	return &Loader{logger: logger, metrics: collector}
}

// Load reads the file at path and returns the parsed records. The header
// must match the expected schema exactly; cells that cannot be coerced to
// their column type become missing values and are counted, never fatal.
func (l *Loader) Load(ctx context.Context, path string) (*LoadResult, error) {
	l.logger.InfoContext(ctx, "loading raw records", slog.String("path", path))

	var (
		result *LoadResult
		err    error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		result, err = l.loadExcel(ctx, path)
	default:
		result, err = l.loadCSV(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	l.metrics.AddRowsLoaded(result.RowsParsed)
	l.logger.InfoContext(ctx, "raw records loaded",
		slog.Int("rows", result.RowsParsed),
		slog.Int("skipped", result.RowsSkipped),
		slog.Int("coercion_warnings", result.TotalWarnings()))

	return result, nil
}

// loadCSV parses a UTF-8 CSV file. A malformed row is skipped and counted;
// the reader recovers at the next line.
func (l *Loader) loadCSV(ctx context.Context, path string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("failed to open input file", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewSchemaError("input file is empty", nil)
	}
	if err != nil {
		return nil, errors.NewIOError("failed to read header row", path, err)
	}

	offset, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	malformed := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				malformed++
				l.logger.DebugContext(ctx, "skipping malformed row", slog.String("error", err.Error()))
				continue
			}
			return nil, errors.NewIOError("failed to read input file", path, err)
		}
		rows = append(rows, row)
	}

	result := l.buildRecords(ctx, path, offset, rows)
	result.RowsSkipped += malformed
	return result, nil
}

// validateHeader checks the raw header against the expected schema and
// returns the cell offset of the first domain column. A single unnamed
// leading column (a spreadsheet row index) is tolerated; anything else is
// a schema mismatch.
func validateHeader(header []string) (int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	expected := domain.RawColumns()

	offset := 0
	if len(header) == len(expected)+1 && strings.TrimSpace(header[0]) == "" {
		offset = 1
	}

	if len(header)-offset != len(expected) {
		return 0, errors.NewSchemaError(
			fmt.Sprintf("expected %d columns, found %d", len(expected), len(header)-offset), nil)
	}

	for i, want := range expected {
		got := strings.TrimSpace(header[i+offset])
		if !strings.EqualFold(got, want) {
			return 0, errors.NewSchemaError(
				fmt.Sprintf("column %d: expected %q, found %q", i+1, want, got), nil)
		}
	}

	return offset, nil
}

// buildRecords converts raw rows into PatientRecords, applying per-column
// type coercion. Text columns are only trimmed here; canonicalization is
// the Normalizer's job.
func (l *Loader) buildRecords(ctx context.Context, path string, offset int, rows [][]string) *LoadResult {
	expectedLen := len(domain.RawColumns()) + offset

	result := &LoadResult{
		Records:          make([]domain.PatientRecord, 0, len(rows)),
		CoercionWarnings: make(map[string]int),
		SourcePath:       path,
	}

	for i, row := range rows {
		rowNum := i + 2 // the header occupies line 1

		if len(row) != expectedLen {
			result.RowsSkipped++
			l.logger.DebugContext(ctx, "skipping row with unexpected field count",
				slog.Int("row", rowNum),
				slog.Int("expected", expectedLen),
				slog.Int("got", len(row)))
			continue
		}

		cells := row[offset:]

		rec := domain.PatientRecord{
			Name:              strings.TrimSpace(cells[0]),
			Gender:            domain.Gender(strings.TrimSpace(cells[2])),
			BloodType:         domain.BloodType(strings.TrimSpace(cells[3])),
			MedicalCondition:  strings.TrimSpace(cells[4]),
			Doctor:            strings.TrimSpace(cells[6]),
			Hospital:          strings.TrimSpace(cells[7]),
			InsuranceProvider: strings.TrimSpace(cells[8]),
			AdmissionType:     domain.AdmissionType(strings.TrimSpace(cells[11])),
			Medication:        strings.TrimSpace(cells[13]),
			TestResults:       domain.TestResult(strings.TrimSpace(cells[14])),
		}

		if v, err := parseIntCell(cells[1]); err != nil {
			l.warn(result, domain.ColAge, rowNum, cells[1])
		} else {
			rec.Age = v
		}

		if v, err := parseDateCell(cells[5]); err != nil {
			l.warn(result, domain.ColAdmissionDate, rowNum, cells[5])
		} else {
			rec.AdmissionDate = v
		}

		if v, err := parseFloatCell(cells[9]); err != nil {
			l.warn(result, domain.ColBillingAmount, rowNum, cells[9])
		} else {
			rec.BillingAmount = v
		}

		if v, err := parseIntCell(cells[10]); err != nil {
			l.warn(result, domain.ColRoomNumber, rowNum, cells[10])
		} else {
			rec.RoomNumber = v
		}

		if v, err := parseDateCell(cells[12]); err != nil {
			l.warn(result, domain.ColDischargeDate, rowNum, cells[12])
		} else {
			rec.DischargeDate = v
		}

		result.Records = append(result.Records, rec)
		result.RowsParsed++
	}

	return result
}

// warn records one cell-level coercion failure. The cell has already been
// converted to a missing value by the caller.
func (l *Loader) warn(result *LoadResult, column string, row int, value string) {
	result.CoercionWarnings[column]++
	l.metrics.IncCoercionWarning(column)

	if len(result.Warnings) < maxStoredWarnings {
		result.Warnings = append(result.Warnings,
			errors.NewCoercionError(column, row, fmt.Sprintf("cannot coerce %q", strings.TrimSpace(value))))
	}

	l.logger.Debug("cell coercion failed",
		slog.String("column", column),
		slog.Int("row", row),
		slog.String("value", strings.TrimSpace(value)))
}

// isMissingToken reports whether a cell spells out an absent value.
func isMissingToken(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// parseIntCell coerces a numeric cell to an int, accepting float spellings
// such as "30.0". Missing tokens yield (nil, nil).
func parseIntCell(raw string) (*int, error) {
	s := strings.TrimSpace(raw)
	if isMissingToken(s) {
		return nil, nil
	}
	if v, err := cast.ToIntE(s); err == nil {
		return &v, nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return nil, err
	}
	v := int(math.Round(f))
	return &v, nil
}

// parseFloatCell coerces a currency or plain decimal cell to a float64.
// Thousands separators and a leading dollar sign are tolerated.
func parseFloatCell(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if isMissingToken(s) {
		return nil, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDateCell coerces a date cell, trying each accepted layout. Any time
// component is truncated to the day.
func parseDateCell(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if isMissingToken(s) {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}
