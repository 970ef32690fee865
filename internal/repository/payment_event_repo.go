package repository

import (
	"context"
	"time"

	"localguide/internal/domain"

	"gorm.io/gorm"
)

type PaymentEventRepository struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

func (r *PaymentEventRepository) Exists(ctx context.Context, providerEventID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.PaymentEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Count(&cnt).Error
	return cnt > 0, err
}

// Record stores a processed delivery. A concurrent duplicate that lost the
// race is not an error.
func (r *PaymentEventRepository) Record(ctx context.Context, ev *domain.PaymentEvent) error {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Create(ev).Error
	if IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *PaymentEventRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentEvent, error) {
	var events []domain.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("received_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

