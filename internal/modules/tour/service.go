package tour

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/pkg/pagination"
	"localguide/internal/pkg/validator"
)

type Service struct {
	tours TourRepository
	log   logrus.FieldLogger
}

func NewService(tours TourRepository, log logrus.FieldLogger) *Service {
	return &Service{tours: tours, log: log}
}

// List returns the public catalog: active tours only, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Tour, int64, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, 0, &ValidationError{Fields: map[string]string{"minPrice": "must not exceed maxPrice"}}
	}
	page := q.Page.Normalize()
	return s.tours.List(ctx, domain.TourFilter{
		City:       strings.TrimSpace(q.City),
		Category:   strings.TrimSpace(q.Category),
		Query:      strings.TrimSpace(q.Query),
		GuideID:    q.GuideID,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		OnlyActive: true,
		Limit:      page.Limit,
		Offset:     q.Page.Offset(),
	})
}

// Get returns a tour. Inactive tours are only visible to their guide and admins;
// viewer may be nil for anonymous callers.
func (s *Service) Get(ctx context.Context, viewer *domain.Principal, id int64) (*domain.Tour, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive && (viewer == nil || !canManage(*viewer, t)) {
		return nil, ErrNotFound
	}
	return t, nil
}

// Mine lists every tour of the calling guide, active or not.
func (s *Service) Mine(ctx context.Context, p domain.Principal, page pagination.Page) ([]domain.Tour, int64, error) {
	guideID := p.UserID
	return s.tours.List(ctx, domain.TourFilter{
		GuideID: &guideID,
		Limit:   page.Normalize().Limit,
		Offset:  page.Offset(),
	})
}

func (s *Service) Create(ctx context.Context, p domain.Principal, req CreateTourRequest) (*domain.Tour, error) {
	if p.Role != domain.RoleGuide {
		return nil, ErrForbidden
	}
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	t := &domain.Tour{
		GuideID:       p.UserID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         req.Price,
		DurationHours: req.DurationHours,
		MaxGroupSize:  req.MaxGroupSize,
		Images:        req.Images,
		Category:      strings.TrimSpace(req.Category),
		City:          strings.TrimSpace(req.City),
		IsActive:      true,
	}
	if err := s.tours.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}

	s.log.WithFields(logrus.Fields{"tour_id": t.ID, "guide_id": t.GuideID}).Info("tour created")
	return t, nil
}

func (s *Service) Update(ctx context.Context, p domain.Principal, id int64, req UpdateTourRequest) (*domain.Tour, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, t) {
		return nil, ErrForbidden
	}

	var cols []string
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
		cols = append(cols, "title")
	}
	if req.Description != nil {
		t.Description = *req.Description
		cols = append(cols, "description")
	}
	if req.Price != nil {
		t.Price = *req.Price
		cols = append(cols, "price")
	}
	if req.DurationHours != nil {
		t.DurationHours = *req.DurationHours
		cols = append(cols, "duration_hours")
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = *req.MaxGroupSize
		cols = append(cols, "max_group_size")
	}
	if req.Images != nil {
		t.Images = *req.Images
		cols = append(cols, "images")
	}
	if req.Category != nil {
		t.Category = strings.TrimSpace(*req.Category)
		cols = append(cols, "category")
	}
	if req.City != nil {
		t.City = strings.TrimSpace(*req.City)
		cols = append(cols, "city")
	}
	if len(cols) == 0 {
		return t, nil
	}

	if err := s.tours.UpdateColumns(ctx, t, cols...); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	return t, nil
}

func (s *Service) SetActive(ctx context.Context, p domain.Principal, id int64, active bool) (*domain.Tour, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, t) {
		return nil, ErrForbidden
	}
	if t.IsActive == active {
		return t, nil
	}

	t.IsActive = active
	if err := s.tours.UpdateColumns(ctx, t, "is_active"); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	s.log.WithFields(logrus.Fields{"tour_id": t.ID, "is_active": active, "actor_id": p.UserID}).Info("tour visibility changed")
	return t, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Tour, error) {
	t, err := s.tours.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load tour: %w", err)
	}
	return t, nil
}

func canManage(p domain.Principal, t *domain.Tour) bool {
	return p.IsAdmin() || p.Is(t.GuideID)
}
