package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the matching core. Callers branch on these with
// errors.Is to decide how a failure is surfaced.
var (
	// ErrBackendUnavailable means the vector backend cannot be reached at
	// all. Fatal to the call; never retried here.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrNoCandidates means the consultant collection does not exist yet.
	// Recoverable: the caller can ingest resumes first.
	ErrNoCandidates = errors.New("no consultants ingested")

	// ErrProviderFailure means the language-model provider failed or
	// returned nothing usable. Fatal to that turn only.
	ErrProviderFailure = errors.New("conversation provider failure")
)

// Sentinel errors for validation failures.
var (
	ErrEmptyQuery          = errors.New("empty query")
	ErrInvalidLimit        = errors.New("invalid result limit")
	ErrEmptyResume         = errors.New("empty resume payload")
	ErrInvalidAvailability = errors.New("invalid availability")
	ErrMissingName         = errors.New("missing consultant name")
	ErrInvalidID           = errors.New("invalid consultant id")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
