package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "medcli/internal/errors"
	"medcli/pkg/contracts/domain"
)

// RecordValidator checks the cleaned-table invariants right before the
// artifacts are written. A violation at that point means an earlier stage
// broke its contract, so the caller should abort the run instead of
// shipping a bad file.
//
// Field rules live as struct tags on the record type; the two rules tags
// cannot express (the closed blood type domain and cross-field date
// ordering) are registered here.
type RecordValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRecordValidator creates a validator with the custom rules registered.
func NewRecordValidator(logger *slog.Logger) (*RecordValidator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("blood_type", validateBloodType); err != nil {
		return nil, fmt.Errorf("register blood_type rule: %w", err)
	}
	validate.RegisterStructValidation(validateRecordLevel, domain.PatientRecord{})

	return &RecordValidator{
		validate: validate,
		logger:   logger,
	}, nil
}

// validateBloodType accepts only the eight ABO/Rh values. The empty
// (missing) case is handled by omitempty on the tag.
func validateBloodType(fl validator.FieldLevel) bool {
	return domain.BloodType(fl.Field().String()).Valid()
}

// validateRecordLevel enforces cross-field invariants: discharge never
// precedes admission, and a populated length of stay never contradicts
// the two dates it was derived from.
func validateRecordLevel(sl validator.StructLevel) {
	rec := sl.Current().Interface().(domain.PatientRecord)

	if rec.AdmissionDate == nil || rec.DischargeDate == nil {
		return
	}
	if rec.DischargeDate.Before(*rec.AdmissionDate) {
		sl.ReportError(rec.DischargeDate, "DischargeDate", "DischargeDate", "date_order", "")
		return
	}
	if rec.LengthOfStay != nil {
		days := int(rec.DischargeDate.Sub(*rec.AdmissionDate).Hours() / 24)
		if days < 1 {
			days = 1
		}
		if *rec.LengthOfStay != days {
			sl.ReportError(rec.LengthOfStay, "LengthOfStay", "LengthOfStay", "length_of_stay", "")
		}
	}
}

// ValidateRecords checks every record and returns a validation error
// naming the first few offending rows, or nil when the table is clean.
func (v *RecordValidator) ValidateRecords(ctx context.Context, records []domain.PatientRecord) error {
	const maxReported = 5

	var reported []string
	total := 0

	for i := range records {
		err := v.validate.StructCtx(ctx, &records[i])
		if err == nil {
			continue
		}

		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			// Misuse of the validator itself, not bad data.
			return apperrors.NewValidationError(fmt.Sprintf("validate row %d", i), err)
		}

		for _, fe := range verrs {
			total++
			if len(reported) < maxReported {
				reported = append(reported, fmt.Sprintf("row %d: %s violates %s", i, fe.Field(), fe.Tag()))
			}
		}
	}

	if total == 0 {
		v.logger.DebugContext(ctx, "record validation passed",
			slog.Int("rows", len(records)))
		return nil
	}

	v.logger.ErrorContext(ctx, "record validation failed",
		slog.Int("rows", len(records)),
		slog.Int("violations", total),
		slog.String("first_violations", strings.Join(reported, "; ")))

	return apperrors.NewValidationError(
		fmt.Sprintf("%d invariant violations (%s)", total, strings.Join(reported, "; ")), nil)
}
