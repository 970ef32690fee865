package booking

import (
	"context"

	"localguide/internal/domain"
)

// BookingRepository defines the interface for booking operations
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) error
}

// TourReader resolves the tour a booking is made for.
type TourReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
}
