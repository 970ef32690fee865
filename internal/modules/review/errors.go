package review

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrForbidden        = errors.New("forbidden")
	ErrReviewNotAllowed = errors.New("review_not_allowed")
	ErrConflict         = errors.New("booking already reviewed")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Fields) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
