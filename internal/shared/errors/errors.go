// Package errors provides application-level error types and utilities.
// It defines the validation, state, isolation and infrastructure error kinds
// returned by the licensing engine and mapped to HTTP responses at the edge.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal_error"

	// State errors: business-rule violations surfaced unmodified.
	ErrorTypeInvalidTransition    ErrorType = "invalid_transition"
	ErrorTypeLicenseNotAuthorized ErrorType = "license_not_authorized"
	ErrorTypeSeatLimitExceeded    ErrorType = "seat_limit_exceeded"

	// Infrastructure errors: retried by the caller with backoff.
	ErrorTypeStorageTimeout     ErrorType = "storage_timeout"
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable"
)

// AppError represents an application error with additional context
type AppError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	Details   string    `json:"details,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`

	crossTenant bool
	cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithEntity attaches the offending entity id.
func (e *AppError) WithEntity(id string) *AppError {
	e.EntityID = id
	return e
}

// WithCause records the wrapped error without exposing it in the message.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func newAppError(t ErrorType, code int, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, details)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, details)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message, details)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, details)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, details)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, details)
}

// NewInvalidTransitionError reports a lifecycle transition the state machine does not allow.
func NewInvalidTransitionError(licenseID, from, action string) *AppError {
	return newAppError(ErrorTypeInvalidTransition, http.StatusConflict,
		fmt.Sprintf("cannot %s license in status %s", action, from), nil).WithEntity(licenseID)
}

// NewLicenseNotAuthorizedError reports a license that does not currently authorize use.
func NewLicenseNotAuthorizedError(licenseID, reason string) *AppError {
	return newAppError(ErrorTypeLicenseNotAuthorized, http.StatusForbidden,
		"license is not valid for use", []string{reason}).WithEntity(licenseID)
}

// NewSeatLimitExceededError reports a license whose seat ceiling is reached.
func NewSeatLimitExceededError(licenseID string, seatLimit int) *AppError {
	return newAppError(ErrorTypeSeatLimitExceeded, http.StatusConflict,
		fmt.Sprintf("seat limit of %d reached", seatLimit), nil).WithEntity(licenseID)
}

// NewStorageTimeoutError reports a storage call that exceeded its deadline.
func NewStorageTimeoutError(cause error) *AppError {
	e := newAppError(ErrorTypeStorageTimeout, http.StatusServiceUnavailable, "storage operation timed out", nil)
	e.Retryable = true
	return e.WithCause(cause)
}

// NewStorageUnavailableError reports a storage failure unrelated to the request.
func NewStorageUnavailableError(cause error) *AppError {
	e := newAppError(ErrorTypeStorageUnavailable, http.StatusServiceUnavailable, "storage unavailable", nil)
	e.Retryable = true
	return e.WithCause(cause)
}

// NewCrossTenantAccessError reports an entity that exists under a different tenant.
// It is indistinguishable from NewNotFoundError(entity) outside the process.
func NewCrossTenantAccessError(entity, id string) *AppError {
	e := NewNotFoundError(entity + " not found")
	e.crossTenant = true
	return e
}

// NewUnknownReferenceError reports an input id that does not resolve within the
// caller's tenant. foreign marks ids owned by another tenant; the message is
// the same either way.
func NewUnknownReferenceError(field, id string, foreign bool) *AppError {
	e := NewValidationError(fmt.Sprintf("unknown %s: %s", field, id))
	e.crossTenant = foreign
	return e
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsCrossTenantError reports whether an error was raised by the tenant guard.
func IsCrossTenantError(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.crossTenant
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Retryable
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	// MySQL duplicate entry error
	if strings.Contains(errStr, "duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// PostgreSQL and SQLite unique violations
	return strings.Contains(errStr, "unique constraint")
}
