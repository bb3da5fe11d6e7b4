package application

import (
	"errors"

	"github.com/example/timeblocks/internal/gesture"
)

var (
	// ErrNotFound is returned when the requested block does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrNotMovable is returned when a move, resize or duplicate targets a
	// recurring block. It matches gesture.ErrNotMovable under errors.Is.
	ErrNotMovable = gesture.ErrNotMovable
	// ErrInvalidCredentials is returned when Basic auth credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}
