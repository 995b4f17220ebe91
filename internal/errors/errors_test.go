package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{
			name:     "schema error type",
			errType:  ErrTypeSchema,
			expected: "SCHEMA",
		},
		{
			name:     "coercion error type",
			errType:  ErrTypeCoercion,
			expected: "COERCION",
		},
		{
			name:     "io error type",
			errType:  ErrTypeIO,
			expected: "IO",
		},
		{
			name:     "validation error type",
			errType:  ErrTypeValidation,
			expected: "VALIDATION",
		},
		{
			name:     "config error type",
			errType:  ErrTypeConfig,
			expected: "CONFIG",
		},
		{
			name:     "not found error type",
			errType:  ErrTypeNotFound,
			expected: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeSchema,
				Message: "header mismatch",
				Cause:   nil,
			},
			wantMessage: "[SCHEMA] header mismatch",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeIO,
				Message: "failed to open input file",
				Cause:   fmt.Errorf("permission denied"),
			},
			wantMessage: "[IO] failed to open input file: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := NewIOError("write failed", "/tmp/out.csv", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeIO, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewSchemaError("unexpected column", nil).
		WithContext("expected", "Name").
		WithContext("actual", "Patient Name")

	assert.Equal(t, "Name", err.Context["expected"])
	assert.Equal(t, "Patient Name", err.Context["actual"])
}

func TestNewCoercionError(t *testing.T) {
	err := NewCoercionError("Billing Amount", 42, "not a number")

	assert.Equal(t, ErrTypeCoercion, err.Type)
	assert.Equal(t, "Billing Amount", err.Context["column"])
	assert.Equal(t, 42, err.Context["row"])
}

func TestNewIOError_Path(t *testing.T) {
	err := NewIOError("read failed", "data/raw.csv", fmt.Errorf("no such file"))

	assert.Equal(t, "data/raw.csv", PathOf(err))
	assert.Equal(t, "", PathOf(fmt.Errorf("plain error")))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"schema error", NewSchemaError("bad header", nil), ErrTypeSchema},
		{"wrapped app error", fmt.Errorf("stage: %w", NewConfigError("bad config", nil)), ErrTypeConfig},
		{"plain error", errors.New("plain"), ErrorType("")},
		{"nil", nil, ErrorType("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(NewCoercionError("Age", 7, "not numeric")))
	assert.True(t, IsFatal(NewSchemaError("missing column", nil)))
	assert.True(t, IsFatal(NewIOError("disk full", "/out", nil)))
	assert.True(t, IsFatal(errors.New("unknown")), "unknown errors abort the run")
}

func TestIsType(t *testing.T) {
	err := NewValidationError("negative length of stay", nil)
	assert.True(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(err, ErrTypeSchema))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("input file")
	assert.Equal(t, "[NOT_FOUND] input file not found", err.Error())
}
