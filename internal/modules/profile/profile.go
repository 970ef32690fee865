// Package profile serves the caller's own profile and the public guide
// directory.
package profile

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
	"localguide/internal/repository"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation error: %v", e.Fields) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateColumns(ctx context.Context, u *domain.User, columns ...string) error
	ListGuides(ctx context.Context, f repository.GuideFilter) ([]domain.User, int64, error)
}

// UpdateProfileRequest is a partial update. Expertise applies to guides and
// travel preferences to tourists only.
type UpdateProfileRequest struct {
	Name              *string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone             *string   `json:"phone,omitempty" validate:"omitempty,max=32"`
	AvatarURL         *string   `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	Bio               *string   `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Languages         *[]string `json:"languages,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
	Expertise         *[]string `json:"expertise,omitempty" validate:"omitempty,max=20,dive,min=1,max=60"`
	TravelPreferences *[]string `json:"travelPreferences,omitempty" validate:"omitempty,max=20,dive,min=1,max=60"`
}

// GuideView is the public face of a guide.
type GuideView struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	AvatarURL    string   `json:"avatarUrl,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	Expertise    []string `json:"expertise,omitempty"`
	IsVerified   bool     `json:"isVerified"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviewsCount"`
}

func ToGuideView(u *domain.User) GuideView {
	return GuideView{
		ID:           u.ID,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		Languages:    u.Languages,
		Expertise:    u.Expertise,
		IsVerified:   u.IsVerified,
		Rating:       u.Rating,
		ReviewsCount: u.ReviewsCount,
	}
}

type GuideQuery struct {
	pagination.Page
	City     string `form:"city"`
	Language string `form:"language"`
}

type Service struct {
	users UserRepository
	log   logrus.FieldLogger
}

func NewService(users UserRepository, log logrus.FieldLogger) *Service {
	return &Service{users: users, log: log}
}

func (s *Service) Get(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.load(ctx, p.UserID)
}

func (s *Service) Update(ctx context.Context, p domain.Principal, req UpdateProfileRequest) (*domain.User, error) {
	for _, list := range []*[]string{req.Languages, req.Expertise, req.TravelPreferences} {
		if list != nil {
			*list = cleanList(*list)
		}
	}
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	u, err := s.load(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if req.Expertise != nil && u.Role != domain.RoleGuide {
		return nil, &ValidationError{Fields: map[string]string{"expertise": "only guides have expertise"}}
	}
	if req.TravelPreferences != nil && u.Role != domain.RoleTourist {
		return nil, &ValidationError{Fields: map[string]string{"travelPreferences": "only tourists have travel preferences"}}
	}

	var cols []string
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
		cols = append(cols, "name")
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
		cols = append(cols, "phone")
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
		cols = append(cols, "avatar_url")
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
		cols = append(cols, "bio")
	}
	if req.Languages != nil {
		u.Languages = *req.Languages
		cols = append(cols, "languages")
	}
	if req.Expertise != nil {
		u.Expertise = *req.Expertise
		cols = append(cols, "expertise")
	}
	if req.TravelPreferences != nil {
		u.TravelPreferences = *req.TravelPreferences
		cols = append(cols, "travel_preferences")
	}
	if len(cols) == 0 {
		return u, nil
	}

	if err := s.users.UpdateColumns(ctx, u, cols...); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "columns": cols}).Debug("profile updated")
	return u, nil
}

func (s *Service) ListGuides(ctx context.Context, q GuideQuery) ([]domain.User, int64, error) {
	page := q.Page.Normalize()
	return s.users.ListGuides(ctx, repository.GuideFilter{
		City:     q.City,
		Language: q.Language,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	})
}

// GetGuide returns an active guide. Other accounts are reported as not found.
func (s *Service) GetGuide(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleGuide || !u.IsActive {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// cleanList trims entries and drops blanks and case-insensitive duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
