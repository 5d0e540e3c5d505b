package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error rendered to API consumers. Code holds a stable
// message key that is translated at the HTTP boundary, never before.
type AppError struct {
	Code             string            `json:"code"`
	StatusCode       int               `json:"-"`
	Internal         error             `json:"-"`
	ValidationErrors map[string]string `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Internal)
	}

	return e.Code
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is reports whether target is an AppError with the same code and status.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code && e.StatusCode == other.StatusCode
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Message keys shared across packages.
const (
	KeyValidationFailure = "validation_failure"
	KeyAuthentication    = "authentication_failure"
	KeyEmailFailure      = "email_failure"
	KeyInternal          = "INTERNAL_SERVER_ERROR"
)

// Common errors exposed to the rest of the application.
var (
	ErrAuthentication = &AppError{
		Code:       KeyAuthentication,
		StatusCode: http.StatusUnauthorized,
	}

	ErrInactiveAuthentication = &AppError{
		Code:       "inactive_authentication_failure",
		StatusCode: http.StatusForbidden,
	}

	ErrEmailFailure = &AppError{
		Code:       KeyEmailFailure,
		StatusCode: http.StatusBadGateway,
	}

	ErrInternalServer = &AppError{
		Code:       KeyInternal,
		StatusCode: http.StatusInternalServerError,
	}

	ErrRateLimit = &AppError{
		Code:       "rate_limit_exceeded",
		StatusCode: http.StatusTooManyRequests,
	}
)

// New builds a new application error with the provided metadata.
func New(code string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		StatusCode: statusCode,
	}
}

// NewBadRequest returns a 400 error carrying the supplied message key.
func NewBadRequest(code string) *AppError {
	return New(code, http.StatusBadRequest)
}

// NewUnauthorized returns a 401 error carrying the supplied message key.
func NewUnauthorized(code string) *AppError {
	return New(code, http.StatusUnauthorized)
}

// NewForbidden returns a 403 error carrying the supplied message key.
func NewForbidden(code string) *AppError {
	return New(code, http.StatusForbidden)
}

// NewNotFound returns a 404 error carrying the supplied message key.
func NewNotFound(code string) *AppError {
	return New(code, http.StatusNotFound)
}

// NewValidation wraps per-field message keys in a 400 validation_failure error.
func NewValidation(fields map[string]string) *AppError {
	return &AppError{
		Code:             KeyValidationFailure,
		StatusCode:       http.StatusBadRequest,
		ValidationErrors: fields,
	}
}

// Wrap turns any error into an internal AppError while keeping the original error for logging.
func Wrap(err error) *AppError {
	return ErrInternalServer.WithInternal(err)
}

// FromError converts a generic error into an AppError, defaulting to ErrInternalServer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalServer.WithInternal(err)
}
