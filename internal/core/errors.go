package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	ErrInvalidType      = errors.New("invalid type")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrTooLong          = errors.New("value too long")

	ErrAmountPrecision  = fmt.Errorf("%w: more than 4 decimal places", ErrInvalidAmount)
	ErrAmountOutOfRange = fmt.Errorf("%w: more than 16 whole digits", ErrInvalidAmount)

	ErrRangeTooLong = fmt.Errorf("%w: longer than %d days", ErrInvalidDateRange, MaxReportDays)
)

// ValidationError reports a rejected input field. It unwraps to the
// sentinel that caused it, so errors.Is(err, ErrInvalidAmount) works.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
