package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service layer. Controllers translate these into
// HTTP status codes; nothing below the controller layer knows about HTTP.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when input fails validation before any
	// write is attempted.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an operation would violate a state
	// invariant, e.g. converting an already-converted lead.
	ErrConflict = errors.New("conflicting state")

	// ErrStorage is returned when the underlying store fails.
	ErrStorage = errors.New("storage failure")
)

// SchemaError reports a failed column migration. The migrator logs these
// and keeps going; startup never aborts on a single bad column.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema migration %s.%s: %v", e.Table, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidationError carries the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err is caused by bad input rather than a
// server-side failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict)
}
