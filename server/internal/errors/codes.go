// Package errors defines the typed errors of the assistant engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for assistant operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeProcessingFailed indicates an unexpected failure while building a response.
	ErrCodeProcessingFailed ErrorCode = "PROCESSING_FAILED"
	// ErrCodeKnowledgeMissing indicates a matched intent has no knowledge entry.
	ErrCodeKnowledgeMissing ErrorCode = "KNOWLEDGE_MISSING"
	// ErrCodeEnhancerUnavailable indicates the enhancement collaborator failed or is disabled.
	ErrCodeEnhancerUnavailable ErrorCode = "ENHANCER_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeCatalogInvalid indicates an intent or knowledge catalog failed validation.
	ErrCodeCatalogInvalid ErrorCode = "CATALOG_INVALID"
)

// AIError represents a structured error for assistant operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ProcessingFailed creates a processing failed error.
func ProcessingFailed(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeProcessingFailed, Message: msg, Cause: cause}
}

// KnowledgeMissing creates a knowledge missing error for an intent.
func KnowledgeMissing(intent string) *AIError {
	return &AIError{
		Code:    ErrCodeKnowledgeMissing,
		Message: fmt.Sprintf("no knowledge entry for intent: %s", intent),
	}
}

// EnhancerUnavailable creates an enhancer unavailable error.
func EnhancerUnavailable(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeEnhancerUnavailable, Message: msg, Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AIError {
	return &AIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// CatalogInvalid creates a catalog validation error.
func CatalogInvalid(catalog string, cause error) *AIError {
	return &AIError{Code: ErrCodeCatalogInvalid, Message: "invalid " + catalog + " catalog", Cause: cause}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, has a specific code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}
