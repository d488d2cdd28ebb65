// Package errors provides standardized error handling for apply dispatch.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeInvalidBulkRequest          ErrorCode = "INVALID_BULK_REQUEST"

	ErrCodeTailoringFailed  ErrorCode = "TAILORING_FAILED"
	ErrCodeTailoringTimeout ErrorCode = "TAILORING_TIMEOUT"

	ErrCodeWorkerRequestFailed   ErrorCode = "WORKER_REQUEST_FAILED"
	ErrCodeWorkerTimeout         ErrorCode = "WORKER_TIMEOUT"
	ErrCodeWorkerBadStatus       ErrorCode = "WORKER_BAD_STATUS"
	ErrCodeWorkerInvalidResponse ErrorCode = "WORKER_INVALID_RESPONSE"

	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewApplicationValidationFailedError creates a non-retryable apply request validation error.
func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Apply request validation failed", details, false, nil)
}

// NewInvalidBulkRequestError creates a non-retryable bulk request shape error.
func NewInvalidBulkRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidBulkRequest, "Bulk request is malformed", details, false, nil)
}

// NewTailoringFailedError wraps a text-generation backend failure.
func NewTailoringFailedError(err error) *StandardError {
	return newError(ErrCodeTailoringFailed, "Bullet tailoring failed", err.Error(), true, err)
}

// NewTailoringTimeoutError reports a text-generation call that exceeded its deadline.
func NewTailoringTimeoutError(timeout time.Duration, err error) *StandardError {
	return newError(ErrCodeTailoringTimeout, "Bullet tailoring timeout",
		fmt.Sprintf("call exceeded %s: %v", timeout, err), true, err)
}

// NewWorkerRequestFailedError wraps a transport failure talking to the automation worker.
func NewWorkerRequestFailedError(err error) *StandardError {
	return newError(ErrCodeWorkerRequestFailed, "Worker request failed", err.Error(), true, err)
}

// NewWorkerTimeoutError reports a worker call that exceeded its deadline.
func NewWorkerTimeoutError(timeout time.Duration, err error) *StandardError {
	return newError(ErrCodeWorkerTimeout, "Worker request timeout",
		fmt.Sprintf("call exceeded %s: %v", timeout, err), true, err)
}

// NewWorkerBadStatusError reports a non-2xx worker response.
func NewWorkerBadStatusError(status int, body string) *StandardError {
	return newError(ErrCodeWorkerBadStatus, "Worker returned an error status",
		fmt.Sprintf("status %d: %s", status, body), status >= 500, nil).
		WithMetadata("status", status)
}

// NewWorkerInvalidResponseError reports a worker body that is not a JSON object.
func NewWorkerInvalidResponseError(err error) *StandardError {
	return newError(ErrCodeWorkerInvalidResponse, "Worker response is not a JSON object", err.Error(), false, err)
}

// NewStorageWriteFailedError wraps a log store append failure.
func NewStorageWriteFailedError(backend string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, "Result log write failed",
		fmt.Sprintf("backend: %s, error: %v", backend, err), true, err)
}

// NewStorageReadFailedError wraps a log store read failure.
func NewStorageReadFailedError(backend string, err error) *StandardError {
	return newError(ErrCodeStorageReadFailed, "Result log read failed",
		fmt.Sprintf("backend: %s, error: %v", backend, err), true, err)
}

// NewInternalError normalizes an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// As extracts the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// HTTPStatus maps an error code onto the status returned to API callers.
func HTTPStatus(code ErrorCode) int {
	switch GetErrorCategory(code) {
	case "VALIDATION":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "TAILORING"):
		return "AI"
	case strings.HasPrefix(codeStr, "WORKER"):
		return "WORKER"
	case strings.HasPrefix(codeStr, "STORAGE"):
		return "STORAGE"
	default:
		return "OTHER"
	}
}
