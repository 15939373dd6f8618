// Package errors defines the service error type used at operation
// boundaries. Every error that can reach an HTTP response is a
// ServiceError with a stable code and status; anything else is wrapped
// into one before it is written out.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeAccessDenied      = "ACCESS_DENIED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUpstreamFailed    = "UPSTREAM_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL"
)

// ServiceError is an error with an HTTP mapping and structured details.
type ServiceError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// WithDetails attaches a detail key/value pair and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a ServiceError with the given code, message and status.
func New(code, message string, status int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap creates a ServiceError around a cause.
func Wrap(err error, code, message string, status int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: err}
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// InvalidToken reports a token that failed validation.
func InvalidToken(cause error) *ServiceError {
	return Wrap(cause, CodeInvalidToken, "invalid or expired token", http.StatusUnauthorized)
}

// AccessDenied reports a token that the upstream refused.
func AccessDenied(message string) *ServiceError {
	if message == "" {
		message = "access denied"
	}
	return New(CodeAccessDenied, message, http.StatusForbidden)
}

// ValidationFailed reports a request rejected before any upstream call.
// The field name is attached as a detail so callers can render the error
// next to the offending input.
func ValidationFailed(field, message string) *ServiceError {
	return New(CodeValidationFailed, message, http.StatusUnprocessableEntity).
		WithDetails("field", field)
}

// UpstreamFailed reports a failed call to the external API gateway.
func UpstreamFailed(cause error, message string) *ServiceError {
	if message == "" {
		message = "Internal Server Error"
	}
	return Wrap(cause, CodeUpstreamFailed, message, http.StatusBadGateway)
}

// NotFound reports a missing resource.
func NotFound(message string) *ServiceError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// RateLimitExceeded reports a throttled request.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(CodeRateLimitExceeded, "rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Internal reports an unexpected failure.
func Internal(cause error) *ServiceError {
	return Wrap(cause, CodeInternal, "internal error", http.StatusInternalServerError)
}

// AsServiceError extracts a ServiceError from err, wrapping unknown errors
// as Internal so handlers always have an HTTP mapping.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return Internal(err)
}
