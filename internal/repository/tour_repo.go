package repository

import (
	"context"
	"strings"

	"localguide/internal/domain"

	"gorm.io/gorm"
)

type TourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) Create(ctx context.Context, t *domain.Tour) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// GetByID fetches a tour with its guide, regardless of whether it is active.
func (r *TourRepository) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	var t domain.Tour
	err := r.db.WithContext(ctx).
		Preload("Guide").
		First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateColumns writes the named columns of t, zero values included.
func (r *TourRepository) UpdateColumns(ctx context.Context, t *domain.Tour, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(t).Omit("Guide").Select(columns).Updates(t)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns tours matching f, newest first, together with the total
// count before paging.
func (r *TourRepository) List(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error) {
	var tours []domain.Tour
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.Tour{})
	if f.OnlyActive {
		q = q.Where("is_active = ?", true)
	}
	if f.GuideID != nil {
		q = q.Where("guide_id = ?", *f.GuideID)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(cat))
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)
	err := q.
		Preload("Guide").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tours).Error

	return tours, total, err
}
