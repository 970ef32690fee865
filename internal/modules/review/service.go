package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/pkg/validator"
	"localguide/internal/repository"
)

type Service struct {
	reviews  ReviewStore
	bookings BookingReader
	log      logrus.FieldLogger
}

func NewService(reviews ReviewStore, bookings BookingReader, log logrus.FieldLogger) *Service {
	return &Service{reviews: reviews, bookings: bookings, log: log}
}

// Create stores a review for a completed booking and refreshes the guide and
// tour ratings in the same transaction.
func (s *Service) Create(ctx context.Context, p domain.Principal, req CreateReviewRequest) (*domain.Review, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !p.Is(b.TouristID) {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingCompleted {
		return nil, ErrReviewNotAllowed
	}

	rv := &domain.Review{
		BookingID: b.ID,
		TouristID: b.TouristID,
		GuideID:   b.GuideID,
		TourID:    b.TourID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.CreateWithRatings(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"review_id":  rv.ID,
		"booking_id": b.ID,
		"guide_id":   b.GuideID,
		"tour_id":    b.TourID,
		"rating":     rv.Rating,
	}).Info("review created")

	return rv, nil
}

func (s *Service) ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error) {
	return s.reviews.ListByTour(ctx, tourID, limit, offset)
}

func (s *Service) ListByGuide(ctx context.Context, guideID int64, limit, offset int) ([]domain.Review, error) {
	return s.reviews.ListByGuide(ctx, guideID, limit, offset)
}

// Recompute rebuilds every rating from the review set. Safe to repeat.
func (s *Service) Recompute(ctx context.Context) (*repository.RecomputeResult, error) {
	res, err := s.reviews.RecomputeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("recompute ratings: %w", err)
	}
	s.log.WithFields(logrus.Fields{"guides": res.Guides, "tours": res.Tours}).Info("ratings recomputed")
	return res, nil
}
