package entity

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrConfiguration indicates a fail-fast configuration problem such as
	// a missing LLM API key or an unknown source-set id. Callers surface
	// this before any side effect runs.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchemaValidation indicates an LLM response parsed as JSON but
	// failed field-level struct validation against the Signal schema.
	ErrSchemaValidation = errors.New("schema validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// AnalysisError wraps an LLM Analyst failure for one post: either the
// provider call exhausted its retry budget, or the response failed schema
// validation. It counts toward a run's error tally without aborting the
// run.
type AnalysisError struct {
	PostID  string
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis failed for post %s: %s: %v", e.PostID, e.Message, e.Cause)
	}
	return fmt.Sprintf("analysis failed for post %s: %s", e.PostID, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

// HTTPError carries a classified non-2xx response from the HTTP Transport.
// StatusCode drives retry policy: 403/404 are terminal, 429 is always
// retryable, 5xx is retryable, anything else is a non-retryable error.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// RateLimitError is an HTTPError specialization for 429 responses,
// carrying the parsed Retry-After duration when the header was present
// and well-formed.
type RateLimitError struct {
	HTTPError
	RetryAfter *time.Duration
}
