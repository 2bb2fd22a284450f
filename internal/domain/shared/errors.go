package shared

import (
	"errors"
	"fmt"
)

// Error codes used across the domain. The HTTP layer maps each code to a status.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeExternalGateway = "EXTERNAL_GATEWAY_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches any not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrValidation      = NewDomainError(CodeValidation, "Invalid input provided")
	ErrExternalGateway = NewDomainError(CodeExternalGateway, "POS gateway request failed")
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict        = NewDomainError(CodeConflict, "Resource already exists")
	ErrUnauthorized    = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden       = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)

// NewValidationError creates a validation error with a custom message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not-found error with a custom message
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewUnauthorizedError creates an authentication error with a custom message
func NewUnauthorizedError(format string, args ...any) *DomainError {
	return NewDomainError(CodeUnauthorized, fmt.Sprintf(format, args...))
}

// NewForbiddenError creates an authorization error with a custom message
func NewForbiddenError(format string, args ...any) *DomainError {
	return NewDomainError(CodeForbidden, fmt.Sprintf(format, args...))
}

// NewGatewayError wraps a failed POS call. op names the remote method.
func NewGatewayError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeExternalGateway,
		Message: fmt.Sprintf("POS request %s failed", op),
		Err:     err,
	}
}

// IsCode reports whether err is a DomainError carrying code
func IsCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
