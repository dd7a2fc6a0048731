package models

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or is not owned by the caller
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername is returned when a username is already registered
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrAuthenticationFailed is returned for an unknown user or a wrong password
	ErrAuthenticationFailed = errors.New("incorrect username or password")
	// ErrInvalidToken is returned for a malformed, expired, revoked or badly signed token
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidationFailed is the root of every input validation error
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError describes which input was rejected.
// It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
