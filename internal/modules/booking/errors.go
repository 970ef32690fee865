package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrTourUnavailable   = errors.New("tour not found or inactive")
	ErrNotFound          = errors.New("booking not found")
	ErrForbidden         = errors.New("not allowed to access this booking")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", e.Fields)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
