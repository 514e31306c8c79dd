package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfDelete         = errors.New("admins cannot delete their own account")
)

// ValidationError carries field-keyed validation messages. Validation is an
// ordered pipeline: each field keeps the first failure found for it, and the
// whole set is reported in one response rather than thrown piecemeal.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// fieldErrors accumulates validation failures, keeping the first message
// recorded per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
