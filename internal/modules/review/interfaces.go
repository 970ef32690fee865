package review

import (
	"context"

	"localguide/internal/domain"
	"localguide/internal/repository"
)

type ReviewStore interface {
	CreateWithRatings(ctx context.Context, rv *domain.Review) error
	ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error)
	ListByGuide(ctx context.Context, guideID int64, limit, offset int) ([]domain.Review, error)
	RecomputeAll(ctx context.Context) (*repository.RecomputeResult, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}
