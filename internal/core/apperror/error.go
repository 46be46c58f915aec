// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Errors crossing the HTTP boundary must be AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal            = "INTERNAL_ERROR"
	CodeClockMovedBackward  = "CLOCK_MOVED_BACKWARD"
	CodeTimestampOutOfRange = "TIMESTAMP_OUT_OF_RANGE"

	// Request errors (400)
	CodeInvalidInput = "INVALID_INPUT"
	CodeNoAction     = "NO_ACTION"

	// Authentication errors (401)
	CodeUnauthorized = "UNAUTHORIZED"
)

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (offending input, clock readings, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewInvalidInput creates an error for a malformed request value (400)
func NewInvalidInput(field string, value any) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    fmt.Sprintf("invalid %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewNoAction is returned when a request does not name a known action (400)
func NewNoAction(action string) *AppError {
	e := &AppError{
		Code:       CodeNoAction,
		Message:    "No Action provided",
		HTTPStatus: http.StatusBadRequest,
	}
	if action != "" {
		e.WithDetail("action", action)
	}
	return e
}

// NewClockMovedBackward reports a system clock regression (503).
// The node can serve again once its clock passes the last issued timestamp.
func NewClockMovedBackward(lastTimestamp int64) *AppError {
	return &AppError{
		Code:       CodeClockMovedBackward,
		Message:    "Invalid system clock",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"last_timestamp": lastTimestamp},
	}
}

// NewTimestampOutOfRange reports a clock reading outside the ID timestamp field (500)
func NewTimestampOutOfRange() *AppError {
	return &AppError{
		Code:       CodeTimestampOutOfRange,
		Message:    "System clock outside the supported ID range",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks if error is an AppError with the given code
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
