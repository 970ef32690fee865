package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/repository"
)

type Service struct {
	userRepo    UserRepository
	bookingRepo BookingRepository
	stats       StatsReader
	log         logrus.FieldLogger
}

func NewService(userRepo UserRepository, bookingRepo BookingRepository, stats StatsReader, log logrus.FieldLogger) *Service {
	return &Service{
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		stats:       stats,
		log:         log,
	}
}

// -------------------- Users --------------------

func (s *Service) ListUsers(ctx context.Context, q UserListQuery) ([]domain.User, int64, error) {
	role := domain.UserRole(strings.TrimSpace(q.Role))
	if role != "" && !role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	return s.userRepo.List(ctx, domain.UserFilter{
		Role:   role,
		Query:  q.Query,
		Active: q.Active,
		Limit:  q.Page.Normalize().Limit,
		Offset: q.Page.Offset(),
	})
}

// ChangeRole sets a user's role. An admin demoting themselves is refused
// before anything is written.
func (s *Service) ChangeRole(ctx context.Context, actor domain.Principal, userID int64, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actor.Is(userID) && role != domain.RoleAdmin {
		return nil, ErrSelfRoleChange
	}

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}

	prev := u.Role
	u.Role = role
	if err := s.userRepo.UpdateColumns(ctx, u, "role"); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.audit(actor, u.ID, "role_changed", logrus.Fields{"from": prev, "to": role})
	return u, nil
}

// SetStatus activates or deactivates an account. Deactivated users fail
// authentication on their next request.
func (s *Service) SetStatus(ctx context.Context, actor domain.Principal, userID int64, active bool) (*domain.User, error) {
	if actor.Is(userID) && !active {
		return nil, ErrSelfDeactivation
	}

	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsActive == active {
		return u, nil
	}

	u.IsActive = active
	if err := s.userRepo.UpdateColumns(ctx, u, "is_active"); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.audit(actor, u.ID, "status_changed", logrus.Fields{"is_active": active})
	return u, nil
}

func (s *Service) SetVerified(ctx context.Context, actor domain.Principal, userID int64, verified bool) (*domain.User, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleGuide {
		return nil, ErrNotAGuide
	}
	if u.IsVerified == verified {
		return u, nil
	}

	u.IsVerified = verified
	if err := s.userRepo.UpdateColumns(ctx, u, "is_verified"); err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}

	s.audit(actor, u.ID, "verification_changed", logrus.Fields{"is_verified": verified})
	return u, nil
}

// -------------------- Bookings & stats --------------------

func (s *Service) ListBookings(ctx context.Context, status string) ([]domain.Booking, error) {
	st := domain.BookingStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.bookingRepo.List(ctx, domain.BookingFilter{Status: st})
}

func (s *Service) Statistics(ctx context.Context) (*repository.Stats, error) {
	st, err := s.stats.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return st, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Service) audit(actor domain.Principal, targetID int64, action string, fields logrus.Fields) {
	s.log.WithFields(fields).WithFields(logrus.Fields{
		"admin_id":  actor.UserID,
		"target_id": targetID,
		"action":    action,
	}).Info("admin action")
}
