package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("user not found")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Fields) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
