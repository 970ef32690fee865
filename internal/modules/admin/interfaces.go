package admin

import (
	"context"

	"localguide/internal/domain"
	"localguide/internal/repository"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateColumns(ctx context.Context, u *domain.User, columns ...string) error
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error)
}

type BookingRepository interface {
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
}

type StatsReader interface {
	Collect(ctx context.Context) (*repository.Stats, error)
}
