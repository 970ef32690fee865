package review

import "localguide/internal/domain"

type CreateReviewRequest struct {
	BookingID int64  `json:"bookingId" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment,omitempty" validate:"max=2000"`
}

// View is a review with its author's summary.
type View struct {
	domain.Review
	Tourist *domain.UserSummary `json:"tourist,omitempty"`
}

func ToViews(list []domain.Review) []View {
	out := make([]View, 0, len(list))
	for i := range list {
		out = append(out, View{Review: list[i], Tourist: list[i].Tourist.Summary()})
	}
	return out
}
