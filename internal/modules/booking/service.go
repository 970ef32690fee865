package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/metrics"
	"localguide/internal/pkg/validator"
)

type Service struct {
	bookings BookingRepository
	tours    TourReader
	notifier events.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(bookings BookingRepository, tours TourReader, notifier events.Notifier, log logrus.FieldLogger) *Service {
	if notifier == nil {
		notifier = events.Noop{}
	}
	return &Service{
		bookings: bookings,
		tours:    tours,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// CreateBooking stores a pending booking for an active tour.
func (s *Service) CreateBooking(ctx context.Context, p domain.Principal, req CreateBookingRequest) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	touristID := req.Tourist
	if touristID == 0 {
		touristID = p.UserID
	}
	if !p.IsAdmin() {
		if p.Role != domain.RoleTourist {
			return nil, fmt.Errorf("%w: only tourists can book tours", ErrForbidden)
		}
		if touristID != p.UserID {
			return nil, fmt.Errorf("%w: cannot book on behalf of another user", ErrForbidden)
		}
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD or RFC3339")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, invalid("date", "must not be in the past")
	}

	tour, err := s.tours.GetByID(ctx, req.Tour)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourUnavailable
		}
		return nil, fmt.Errorf("load tour: %w", err)
	}
	if !tour.IsActive {
		return nil, ErrTourUnavailable
	}
	if tour.GuideID != req.Guide {
		return nil, invalid("guide", "does not match the tour's guide")
	}
	if tour.MaxGroupSize > 0 && req.NumberOfPeople > tour.MaxGroupSize {
		return nil, invalid("numberOfPeople", fmt.Sprintf("must be at most %d", tour.MaxGroupSize))
	}

	b := &domain.Booking{
		TouristID:       touristID,
		GuideID:         tour.GuideID,
		TourID:          tour.ID,
		Date:            date,
		NumberOfPeople:  req.NumberOfPeople,
		TotalAmount:     req.TotalAmount,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	created, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": created.ID,
		"tour_id":    created.TourID,
		"tourist_id": created.TouristID,
	}).Info("booking created")
	s.notify(ctx, created, "", "booking.created")

	return created, nil
}

// ListBookings returns bookings newest first. Non-admins only see bookings
// they take part in.
func (s *Service) ListBookings(ctx context.Context, p domain.Principal, q ListQuery) ([]domain.Booking, error) {
	userID := q.UserID
	if userID == 0 && !p.IsAdmin() {
		userID = p.UserID
	}
	if !p.IsAdmin() && userID != p.UserID {
		return nil, ErrForbidden
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalid("status", "unknown booking status")
	}

	f := domain.BookingFilter{Status: q.Status}
	if userID != 0 {
		switch q.Role {
		case domain.RoleTourist:
			f.TouristID = &userID
		case domain.RoleGuide:
			f.GuideID = &userID
		case "":
			f.TouristID, f.GuideID = &userID, &userID
		default:
			return nil, invalid("role", "must be tourist or guide")
		}
	}

	return s.bookings.List(ctx, f)
}

func (s *Service) GetBooking(ctx context.Context, p domain.Principal, id int64) (*domain.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Is(b.TouristID) && !p.Is(b.GuideID) {
		return nil, ErrForbidden
	}
	return b, nil
}

// UpdateStatus moves a booking along its lifecycle. Admins may apply any
// valid transition, the guide may confirm, complete or cancel, and the
// tourist may only cancel. Payment status is never touched here.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, id int64, next domain.BookingStatus) (*domain.Booking, error) {
	if !next.Valid() {
		return nil, invalid("status", "must be one of pending, confirmed, completed, cancelled")
	}

	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !mayChangeStatus(p, b, next) {
		return nil, ErrForbidden
	}
	if !b.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	if b.Status == next {
		return b, nil
	}

	prev := b.Status
	now := s.now().UTC()
	patch := domain.BookingPatch{Status: &next}
	switch next {
	case domain.BookingCompleted:
		patch.CompletedAt = &now
	case domain.BookingCancelled:
		patch.CancelledAt = &now
	}

	if err := s.bookings.Update(ctx, b.ID, patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	patch.Apply(b)

	metrics.BookingTransitions.WithLabelValues(string(prev), string(next)).Inc()
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"from":       prev,
		"to":         next,
		"actor_id":   p.UserID,
	}).Info("booking status changed")
	s.notify(ctx, b, prev, "booking.status")

	return b, nil
}

func mayChangeStatus(p domain.Principal, b *domain.Booking, next domain.BookingStatus) bool {
	switch {
	case p.IsAdmin():
		return true
	case p.Is(b.GuideID):
		return next == domain.BookingConfirmed || next == domain.BookingCompleted || next == domain.BookingCancelled
	case p.Is(b.TouristID):
		return next == domain.BookingCancelled
	default:
		return false
	}
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, b *domain.Booking, prev domain.BookingStatus, source string) {
	_ = s.notifier.BookingChanged(ctx, events.NewBookingStatusChanged(b, prev, source))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
