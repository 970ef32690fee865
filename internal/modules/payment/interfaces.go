package payment

import (
	"context"

	"localguide/internal/domain"
)

// BookingStore is the slice of the booking repository payments need.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) error
}

// EventStore keeps processed webhook deliveries for duplicate detection and audit.
type EventStore interface {
	Exists(ctx context.Context, providerEventID string) (bool, error)
	Record(ctx context.Context, ev *domain.PaymentEvent) error
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentEvent, error)
}
