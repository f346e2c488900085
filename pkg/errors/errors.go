// Package errors defines the application error taxonomy shared by the core
// packages and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents different types of application errors
type ErrorCode string

const (
	// Authentication and authorization errors
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrAccessDenied ErrorCode = "ACCESS_DENIED"

	// Validation errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Resource errors
	ErrRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"
	ErrDuplicateRecord ErrorCode = "DUPLICATE_RECORD"
	ErrInvalidState    ErrorCode = "INVALID_STATE"

	// Persistence errors
	ErrDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"

	// Outbound collaborators (blob store, payment gateway)
	ErrUpstream ErrorCode = "UPSTREAM_ERROR"

	ErrQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application-specific error
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Details is sent to the client as the response data when set.
	Details map[string]any
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// WrapError wraps an existing error with application error context
func WrapError(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(code, message, err)
}

func Invalid(format string, args ...any) *AppError {
	return NewAppError(ErrInvalidInput, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *AppError {
	return NewAppError(ErrRecordNotFound, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...any) *AppError {
	return NewAppError(ErrAccessDenied, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(format string, args ...any) *AppError {
	return NewAppError(ErrUnauthorized, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) *AppError {
	return NewAppError(ErrInvalidState, fmt.Sprintf(format, args...), nil)
}

func Duplicate(format string, args ...any) *AppError {
	return NewAppError(ErrDuplicateRecord, fmt.Sprintf(format, args...), nil)
}

// Upstream wraps a failure of an outbound collaborator.
func Upstream(message string, cause error) *AppError {
	return NewAppError(ErrUpstream, message, cause)
}

// QuotaExceeded reports how much storage an add needed and how much was left.
func QuotaExceeded(neededMB, availableMB float64) *AppError {
	err := NewAppError(ErrQuotaExceeded, "Insufficient storage space", nil)
	err.Details = map[string]any{"needed": neededMB, "available": availableMB}
	return err
}

// DetailsOf returns the Details of the AppError carried by err, if any.
func DetailsOf(err error) map[string]any {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// Database wraps a persistence failure. The message of the cause is kept
// verbatim so callers see the failing statement.
func Database(err error) *AppError {
	return WrapError(err, ErrDatabaseError, "database error")
}

// CodeOf returns the ErrorCode carried by err, or ErrInternalError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps an error to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrAccessDenied:
		return http.StatusForbidden
	case ErrRecordNotFound:
		return http.StatusNotFound
	case ErrDuplicateRecord, ErrInvalidState:
		return http.StatusConflict
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrQuotaExceeded:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
