package repository

import (
	"context"

	"localguide/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tourist").
		Preload("Guide").
		Preload("Tour")
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Omit("Tourist", "Guide", "Tour").Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.withRefs(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByPaymentIntentID finds the booking that references a provider intent.
func (r *BookingRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.withRefs(ctx).
		Where("payment_intent_id = ?", intentID).
		Order("id DESC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns bookings newest first. TouristID and GuideID are OR-ed so a
// user can see bookings where they are on either side.
func (r *BookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var bookings []domain.Booking

	q := r.withRefs(ctx).Model(&domain.Booking{})
	switch {
	case f.TouristID != nil && f.GuideID != nil:
		q = q.Where("tourist_id = ? OR guide_id = ?", *f.TouristID, *f.GuideID)
	case f.TouristID != nil:
		q = q.Where("tourist_id = ?", *f.TouristID)
	case f.GuideID != nil:
		q = q.Where("guide_id = ?", *f.GuideID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	err := q.Order("created_at DESC, id DESC").Find(&bookings).Error
	return bookings, err
}

// Update writes the non-nil patch fields of booking id.
func (r *BookingRepository) Update(ctx context.Context, id int64, patch domain.BookingPatch) error {
	if patch.Empty() {
		return nil
	}
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
