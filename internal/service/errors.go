package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrUnauthenticated is returned for any failed session check: a missing,
	// malformed, forged or revoked token, or a token whose user no longer exists.
	ErrUnauthenticated = errors.New("please authenticate")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("unable to login")

	// ErrUnsupportedAvatar indicates an avatar upload that is not a JPEG or PNG image.
	ErrUnsupportedAvatar = errors.New("unsupported avatar format")
)

// ServiceError is a custom error type for unexpected failures inside a service
// operation. Expected conditions are returned as sentinels instead.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
