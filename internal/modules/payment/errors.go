package payment

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrMissingFields       = errors.New("paymentIntentId, bookingId and amount are required")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrForbidden           = errors.New("not allowed to pay for this booking")
	ErrNotPayable          = errors.New("booking cannot be paid")
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrProvider            = errors.New("payment provider error")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedEvent      = errors.New("malformed webhook event")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Fields) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProviderError is a failed call to the payment provider. HTTPStatus is the
// provider's own status code, zero when the call never got a response.
type ProviderError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider error (%d %s): %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error (%d): %s", e.HTTPStatus, e.Message)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Rejected reports whether the provider refused the request itself, as
// opposed to being unreachable or failing internally.
func (e *ProviderError) Rejected() bool {
	return e.HTTPStatus >= 400 && e.HTTPStatus < 500
}

// NotSucceededError reports the provider-side status of an intent that was
// expected to have succeeded.
type NotSucceededError struct {
	IntentID string
	Status   string
}

func (e *NotSucceededError) Error() string {
	return fmt.Sprintf("payment intent %s is %s", e.IntentID, e.Status)
}

func (e *NotSucceededError) Is(target error) bool { return target == ErrPaymentNotSucceeded }
