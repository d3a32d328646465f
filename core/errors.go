package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a conversation or memory referenced by id
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("not found")
)

// ValidationError rejects a write whose input is missing required fields. It
// is surfaced synchronously and nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
