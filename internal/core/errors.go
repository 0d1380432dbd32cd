package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks every input rejection. Use errors.Is to detect it.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an expense id does not exist.
	ErrNotFound = errors.New("expense not found")
	// ErrStoreUnavailable wraps driver and connection failures of the store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidPerson      = errors.New("invalid person")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidLimit       = errors.New("invalid limit")
)

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap exposes both ErrValidation and the field-specific cause.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
