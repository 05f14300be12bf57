// Package errors provides custom error types for the audit trail API.
// Service and handler errors use AppError so that responses stay consistent
// and never leak store internals to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// ErrUnauthorized rejects requests without valid credentials.
var ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Audit trail errors.
var (
	ErrAuditLogNotFound = &AppError{Code: "AUDIT_LOG_NOT_FOUND", Message: "Audit log not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateRange = &AppError{Code: "INVALID_DATE_RANGE", Message: "date_from must not be after date_to", StatusCode: http.StatusBadRequest}
	ErrInvalidDate      = &AppError{Code: "INVALID_DATE", Message: "Dates must be RFC3339 or YYYY-MM-DD", StatusCode: http.StatusBadRequest}
	ErrInvalidOperation = &AppError{Code: "INVALID_OPERATION", Message: "Unsupported audit operation", StatusCode: http.StatusBadRequest}
	ErrStoreUnavailable = &AppError{Code: "STORE_UNAVAILABLE", Message: "Audit store is unavailable", StatusCode: http.StatusServiceUnavailable}
	ErrFeedNotRunning   = &AppError{Code: "FEED_NOT_RUNNING", Message: "Recent activity feed is not running", StatusCode: http.StatusServiceUnavailable}
)
