package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInput represents caller contract violations caught before any query
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeStore represents graph store failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeNotFound represents lookups that matched nothing
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypePartial represents composite writes where some steps failed
	ErrorTypePartial ErrorType = "partial"
	// ErrorTypeBackground represents fire-and-forget task failures
	ErrorTypeBackground ErrorType = "background"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeIngest represents third-party job API errors
	ErrorTypeIngest ErrorType = "ingest"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Input Errors

// ErrInvalidInput is returned when a caller violates an operation's input contract
type ErrInvalidInput struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidInput(field, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// NewInvalidInputWrap is NewInvalidInput carrying the underlying parse error
func NewInvalidInputWrap(field, reason string, err error) *ErrInvalidInput {
	e := NewInvalidInput(field, reason)
	e.Err = err
	return e
}

// Store Errors

// ErrStoreFailed is returned when the graph store rejects or fails a query
type ErrStoreFailed struct {
	*BaseError
	Query string
}

func NewStoreFailed(query string, err error) *ErrStoreFailed {
	return &ErrStoreFailed{
		BaseError: NewBaseError(ErrorTypeStore, "query failed", err),
		Query:     query,
	}
}

// ErrEntityNotFound is returned when a keyed lookup matched no node
type ErrEntityNotFound struct {
	*BaseError
	Label string
	Key   string
}

func NewEntityNotFound(label, key string) *ErrEntityNotFound {
	return &ErrEntityNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", label, key), nil),
		Label:     label,
		Key:       key,
	}
}

// Composite Errors

// ErrPartialWrite is returned when some steps of an orchestrated write failed.
// Successful steps are not rolled back.
type ErrPartialWrite struct {
	*BaseError
	Failed []string
}

// NewPartialWrite builds an ErrPartialWrite from step name -> error. Nil errors are skipped;
// nil is returned when no step failed.
func NewPartialWrite(steps []string, errs []error) error {
	var failed []string
	var wrapped []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, steps[i])
		wrapped = append(wrapped, fmt.Errorf("%s: %w", steps[i], err))
	}
	if len(failed) == 0 {
		return nil
	}
	return &ErrPartialWrite{
		BaseError: NewBaseError(ErrorTypePartial, fmt.Sprintf("failed steps: %s", strings.Join(failed, ", ")), errors.Join(wrapped...)),
		Failed:    failed,
	}
}

// ErrBackgroundTask is published when a fire-and-forget task fails
type ErrBackgroundTask struct {
	*BaseError
	Task string
}

func NewBackgroundTask(task string, err error) *ErrBackgroundTask {
	return &ErrBackgroundTask{
		BaseError: NewBaseError(ErrorTypeBackground, fmt.Sprintf("background task failed: %s", task), err),
		Task:      task,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Ingest Errors

// ErrIngestFetchFailed is returned when the third-party job API call fails
type ErrIngestFetchFailed struct {
	*BaseError
	URL        string
	StatusCode int
}

func NewIngestFetchFailed(url string, statusCode int, err error) *ErrIngestFetchFailed {
	return &ErrIngestFetchFailed{
		BaseError:  NewBaseError(ErrorTypeIngest, fmt.Sprintf("failed to fetch %s", url), err),
		URL:        url,
		StatusCode: statusCode,
	}
}

// Helper functions

type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	var t typed
	if errors.As(err, &t) {
		return t.errorType() == errType
	}
	return false
}

// IsRetryable checks if an error is worth retrying by an outer caller
func IsRetryable(err error) bool {
	if IsErrorType(err, ErrorTypeInput) || IsErrorType(err, ErrorTypeNotFound) {
		return false
	}
	var fetchErr *ErrIngestFetchFailed
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 0 || fetchErr.StatusCode == 429 || fetchErr.StatusCode >= 500
	}
	// Store connection errors are retryable
	return IsErrorType(err, ErrorTypeStore)
}
