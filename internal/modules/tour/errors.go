package tour

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("tour not found")
	ErrForbidden  = errors.New("forbidden")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Fields) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
