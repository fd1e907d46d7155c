package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an application error carrying the HTTP status, a stable code
// and context for logging.
type AppError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Internal   error                  `json:"-"` // never exposed to the client
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewAppError creates a new application error.
func NewAppError(statusCode int, code int, message string, internal error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   internal,
		StatusCode: statusCode,
		Metadata:   make(map[string]interface{}),
		Retryable:  false,
	}
}

// WithDetails adds a caller-facing detail string.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata attaches a metadata entry for logging.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithRetryable marks the error as retryable.
func (e *AppError) WithRetryable(retryable bool) *AppError {
	e.Retryable = retryable
	return e
}

// The engine's error kinds.
var (
	// ErrValidation rejects a request before any backend call is made:
	// malformed dates, conflicting days/date-range parameters, missing
	// customer number.
	ErrValidation = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadRequest, 40000, "Invalid request", err).
			WithDetails(details)
	}

	// ErrUpstream wraps an Aspect4 transport or backend failure. Server-side
	// failures are retryable; client-side ones are not.
	ErrUpstream = func(statusCode int, details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50200, "Aspect4 backend error", err).
			WithDetails(details).
			WithMetadata("backend_status_code", statusCode).
			WithRetryable(statusCode >= 500 || statusCode == 0)
	}

	// ErrUpstreamAuth is an authentication failure against Aspect4. It is
	// never retryable and always fatal for the whole batch.
	ErrUpstreamAuth = func(details string, err error) *AppError {
		return NewAppError(http.StatusBadGateway, 50201, "Aspect4 authentication failed", err).
			WithDetails(details).
			WithRetryable(false)
	}

	// ErrDataShape marks a retrieved record that is missing an identity field
	// needed for joining. The record is logged and skipped; the request
	// continues.
	ErrDataShape = func(details string, err error) *AppError {
		return NewAppError(http.StatusUnprocessableEntity, 42200, "Malformed backend record", err).
			WithDetails(details)
	}

	// ErrInternalServer covers everything the other kinds do not.
	ErrInternalServer = func(details string, err error) *AppError {
		return NewAppError(http.StatusInternalServerError, 50000, "Internal server error", err).
			WithDetails(details).
			WithRetryable(true)
	}
)

// IsRetryable reports whether the error may be retried.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// IsAuth reports whether the error is a backend authentication failure,
// which fails the whole batch instead of a single order.
func IsAuth(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == 50201
	}
	return false
}
