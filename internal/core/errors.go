package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions. These map
// directly onto the error codes of the execution core's taxonomy.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"   // invalid input
	ErrCatCLINotFound ErrorCategory = "cli_not_found" // backend binary not on PATH
	ErrCatSpawn       ErrorCategory = "spawn"         // subprocess failed to start
	ErrCatSubprocess  ErrorCategory = "subprocess"    // subprocess exited non-zero
	ErrCatTimeout     ErrorCategory = "timeout"       // operation exceeded its deadline
	ErrCatRateLimit   ErrorCategory = "rate_limit"    // backend signaled rate limiting
	ErrCatParse       ErrorCategory = "parse"         // response could not be parsed
	ErrCatBuffer      ErrorCategory = "buffer"        // output exceeded the buffer cap
	ErrCatAuth        ErrorCategory = "auth"          // authentication failure
	ErrCatNotFound    ErrorCategory = "not_found"     // resource not found
	ErrCatInternal    ErrorCategory = "internal"      // unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error. Never retryable.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message, Retryable: false}
}

// ErrCLINotFound creates a CLI_NOT_FOUND error carrying install
// instructions for the missing backend.
func ErrCLINotFound(backend, installInstructions string) *DomainError {
	return &DomainError{
		Category:  ErrCatCLINotFound,
		Code:      "CLI_NOT_FOUND",
		Message:   fmt.Sprintf("%s CLI not found on PATH: %s", backend, installInstructions),
		Retryable: false,
		Details:   map[string]interface{}{"backend": backend},
	}
}

// ErrSpawn creates a SUBPROCESS_SPAWN_ERROR error. Not retryable: a
// binary that fails to spawn once will fail to spawn again immediately.
func ErrSpawn(message string) *DomainError {
	return &DomainError{Category: ErrCatSpawn, Code: "SUBPROCESS_SPAWN_ERROR", Message: message, Retryable: false}
}

// ErrSubprocess creates a SUBPROCESS_ERROR error (non-zero exit that isn't
// classified as rate-limit or auth). Not retryable per spec: retrying a
// deterministic failure only adds load.
func ErrSubprocess(message string) *DomainError {
	return &DomainError{Category: ErrCatSubprocess, Code: "SUBPROCESS_ERROR", Message: message, Retryable: false}
}

// ErrTimeout creates a TIMEOUT error. Not retryable: if a call already hit
// its deadline once, retrying immediately tends to exhaust the same
// budget again rather than succeed.
func ErrTimeout(message string) *DomainError {
	return &DomainError{Category: ErrCatTimeout, Code: "TIMEOUT", Message: message, Retryable: false}
}

// ErrRateLimit creates a RATE_LIMIT error. The only retryable category.
func ErrRateLimit(message string) *DomainError {
	return &DomainError{Category: ErrCatRateLimit, Code: "RATE_LIMIT", Message: message, Retryable: true}
}

// ErrParse creates a PARSE_ERROR error.
func ErrParse(message string) *DomainError {
	return &DomainError{Category: ErrCatParse, Code: "PARSE_ERROR", Message: message, Retryable: false}
}

// ErrBuffer creates a BUFFER_EXCEEDED error.
func ErrBuffer(message string) *DomainError {
	return &DomainError{Category: ErrCatBuffer, Code: "BUFFER_EXCEEDED", Message: message, Retryable: false}
}

// ErrAuth creates an authentication error.
func ErrAuth(message string) *DomainError {
	return &DomainError{Category: ErrCatAuth, Code: "AUTH_FAILED", Message: message, Retryable: false}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// IsRetryable checks if an error is retryable. Only RATE_LIMIT errors are,
// per the retry controller's policy (spec.md §4.3).
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// MaxPromptLength bounds the size of a composed stdin payload handed to a
// backend adapter.
const MaxPromptLength = 100000
