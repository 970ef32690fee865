package tour

import (
	"context"

	"localguide/internal/domain"
)

type TourRepository interface {
	Create(ctx context.Context, t *domain.Tour) error
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
	UpdateColumns(ctx context.Context, t *domain.Tour, columns ...string) error
	List(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error)
}
