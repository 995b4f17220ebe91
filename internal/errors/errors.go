package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeSchema marks a fatal input header mismatch. Nothing is
	// transformed once a schema error is raised.
	ErrTypeSchema ErrorType = "SCHEMA"

	// ErrTypeCoercion marks a non-fatal cell coercion failure. The cell
	// becomes a missing value and the run continues; occurrences are
	// counted and reported in the run summary.
	ErrTypeCoercion ErrorType = "COERCION"

	// ErrTypeIO marks a fatal read or write failure. The offending path
	// travels in the error context.
	ErrTypeIO ErrorType = "IO"

	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewSchemaError creates a fatal header/schema mismatch error
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewCoercionError creates a non-fatal cell coercion error carrying the
// column name and one-based row number of the offending cell
func NewCoercionError(column string, row int, message string) *AppError {
	return NewAppError(ErrTypeCoercion, message, nil).
		WithContext("column", column).
		WithContext("row", row)
}

// NewIOError creates a fatal I/O error carrying the offending path
func NewIOError(message string, path string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause).WithContext("path", path)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// TypeOf returns the error type of err if it is (or wraps) an AppError,
// or the empty string otherwise
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err is (or wraps) an AppError of the given type
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// IsFatal reports whether err should abort the run. Coercion errors are
// the only recoverable kind; everything else is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) != ErrTypeCoercion
}

// PathOf extracts the offending path from an I/O error context, or the
// empty string when none was recorded
func PathOf(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Context == nil {
		return ""
	}
	if p, ok := appErr.Context["path"].(string); ok {
		return p
	}
	return ""
}
