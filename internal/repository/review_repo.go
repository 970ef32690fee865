package repository

import (
	"context"
	"fmt"

	"localguide/internal/domain"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateWithRatings inserts the review and recomputes the rating of its guide
// and tour inside one transaction, so a failure leaves neither written.
func (r *ReviewRepository) CreateWithRatings(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tourist").Create(rv).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		if _, err := recomputeGuide(tx, rv.GuideID); err != nil {
			return err
		}
		if _, err := recomputeTour(tx, rv.TourID); err != nil {
			return err
		}
		return nil
	})
}

func (r *ReviewRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.Review{}).Where("booking_id = ?", bookingID).Count(&cnt).Error
	return cnt > 0, err
}

func (r *ReviewRepository) ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error) {
	return r.list(ctx, "tour_id = ?", tourID, limit, offset)
}

func (r *ReviewRepository) ListByGuide(ctx context.Context, guideID int64, limit, offset int) ([]domain.Review, error) {
	return r.list(ctx, "guide_id = ?", guideID, limit, offset)
}

func (r *ReviewRepository) list(ctx context.Context, where string, id int64, limit, offset int) ([]domain.Review, error) {
	var reviews []domain.Review
	limit, offset = normalizePage(limit, offset)
	err := r.db.WithContext(ctx).
		Preload("Tourist").
		Where(where, id).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

type RecomputeResult struct {
	Guides int `json:"guides"`
	Tours  int `json:"tours"`
}

// RecomputeAll rebuilds every guide and tour rating from the reviews table.
// Running it twice yields the same values.
func (r *ReviewRepository) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	res := &RecomputeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var guideIDs []int64
		if err := tx.Model(&domain.User{}).Where("role = ?", domain.RoleGuide).Pluck("id", &guideIDs).Error; err != nil {
			return err
		}
		for _, id := range guideIDs {
			if _, err := recomputeGuide(tx, id); err != nil {
				return err
			}
		}

		var tourIDs []int64
		if err := tx.Model(&domain.Tour{}).Pluck("id", &tourIDs).Error; err != nil {
			return err
		}
		for _, id := range tourIDs {
			if _, err := recomputeTour(tx, id); err != nil {
				return err
			}
		}

		res.Guides, res.Tours = len(guideIDs), len(tourIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func aggregate(tx *gorm.DB, column string, id int64) (domain.RatingAggregate, error) {
	var agg domain.RatingAggregate
	err := tx.Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS rating, COUNT(*) AS count").
		Where(column+" = ?", id).
		Scan(&agg).Error
	if err != nil {
		return agg, fmt.Errorf("aggregate reviews by %s: %w", column, err)
	}
	return agg, nil
}

func recomputeGuide(tx *gorm.DB, guideID int64) (domain.RatingAggregate, error) {
	agg, err := aggregate(tx, "guide_id", guideID)
	if err != nil {
		return agg, err
	}
	err = tx.Model(&domain.User{}).Where("id = ?", guideID).
		Updates(map[string]any{"rating": agg.Rating, "reviews_count": agg.Count}).Error
	return agg, err
}

func recomputeTour(tx *gorm.DB, tourID int64) (domain.RatingAggregate, error) {
	agg, err := aggregate(tx, "tour_id", tourID)
	if err != nil {
		return agg, err
	}
	err = tx.Model(&domain.Tour{}).Where("id = ?", tourID).
		Updates(map[string]any{"rating": agg.Rating, "reviews_count": agg.Count}).Error
	return agg, err
}
