package tour

import (
	"localguide/internal/domain"
	"localguide/internal/pkg/pagination"
)

type CreateTourRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	Price         float64  `json:"price" validate:"gte=0"`
	DurationHours float64  `json:"durationHours" validate:"gt=0"`
	MaxGroupSize  int      `json:"maxGroupSize" validate:"required,gt=0"`
	Images        []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Category      string   `json:"category" validate:"required,max=50"`
	City          string   `json:"city" validate:"required,max=100"`
}

// UpdateTourRequest is a partial update; nil fields stay unchanged.
type UpdateTourRequest struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price         *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	DurationHours *float64  `json:"durationHours,omitempty" validate:"omitempty,gt=0"`
	MaxGroupSize  *int      `json:"maxGroupSize,omitempty" validate:"omitempty,gt=0"`
	Images        *[]string `json:"images,omitempty"`
	Category      *string   `json:"category,omitempty" validate:"omitempty,min=1,max=50"`
	City          *string   `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ListQuery struct {
	pagination.Page
	City     string   `form:"city"`
	Category string   `form:"category"`
	Query    string   `form:"q"`
	GuideID  *int64   `form:"guideId"`
	MinPrice *float64 `form:"minPrice"`
	MaxPrice *float64 `form:"maxPrice"`
}

// View is a tour with its guide's summary.
type View struct {
	domain.Tour
	Guide *domain.UserSummary `json:"guide,omitempty"`
}

func ToView(t *domain.Tour) View {
	return View{Tour: *t, Guide: t.Guide.Summary()}
}

func ToViews(list []domain.Tour) []View {
	out := make([]View, 0, len(list))
	for i := range list {
		out = append(out, ToView(&list[i]))
	}
	return out
}
