package payment

import "localguide/internal/domain"

type CreateIntentRequest struct {
	BookingID int64  `json:"bookingId" validate:"required,gt=0"`
	UserID    int64  `json:"userId"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserName  string `json:"userName" validate:"omitempty,max=255"`
}

type CreateIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// CheckoutRequest fields are checked by the service so that a missing field
// yields ErrMissingFields instead of a generic validation error.
type CheckoutRequest struct {
	PaymentIntentID string  `json:"paymentIntentId"`
	BookingID       int64   `json:"bookingId"`
	Amount          float64 `json:"amount"`
	UserEmail       string  `json:"userEmail" validate:"omitempty,email"`
	ReturnURL       string  `json:"returnUrl" validate:"omitempty,url"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type BookingPaymentView struct {
	ID            int64                `json:"id"`
	Status        domain.BookingStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}

func toPaymentView(b *domain.Booking) BookingPaymentView {
	return BookingPaymentView{ID: b.ID, Status: b.Status, PaymentStatus: b.PaymentStatus}
}

// WebhookResult describes what happened to one delivery.
type WebhookResult struct {
	EventID   string
	Type      string
	Outcome   string
	BookingID int64
}

const (
	OutcomeApplied   = string(domain.PaymentEventApplied)
	OutcomeIgnored   = string(domain.PaymentEventIgnored)
	OutcomeUnmatched = string(domain.PaymentEventUnmatched)
	OutcomeDuplicate = "duplicate"
)
