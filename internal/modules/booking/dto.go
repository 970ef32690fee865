package booking

import "localguide/internal/domain"

type CreateBookingRequest struct {
	// Tourist defaults to the caller. Only admins may book for someone else.
	Tourist         int64   `json:"tourist"`
	Guide           int64   `json:"guide" validate:"required,gt=0"`
	Tour            int64   `json:"tour" validate:"required,gt=0"`
	Date            string  `json:"date" validate:"required"`
	NumberOfPeople  int     `json:"numberOfPeople" validate:"required,min=1"`
	TotalAmount     float64 `json:"totalAmount" validate:"required,gt=0"`
	SpecialRequests string  `json:"specialRequests" validate:"max=2000"`
}

type UpdateStatusRequest struct {
	Status domain.BookingStatus `json:"status" validate:"required"`
}

// ListQuery mirrors GET /bookings?userId=&role=. Role narrows the listing to
// bookings where the user is the tourist or the guide; empty means either.
type ListQuery struct {
	UserID int64                `form:"userId"`
	Role   domain.UserRole      `form:"role"`
	Status domain.BookingStatus `form:"status"`
}

// View is the API shape of a booking, with references resolved to summaries.
type View struct {
	*domain.Booking
	Tourist *domain.UserSummary `json:"tourist,omitempty"`
	Guide   *domain.UserSummary `json:"guide,omitempty"`
	Tour    *domain.TourSummary `json:"tour,omitempty"`
}

func ToView(b *domain.Booking) View {
	return View{
		Booking: b,
		Tourist: b.Tourist.Summary(),
		Guide:   b.Guide.Summary(),
		Tour:    b.Tour.Summary(),
	}
}

func ToViews(bs []domain.Booking) []View {
	out := make([]View, 0, len(bs))
	for i := range bs {
		out = append(out, ToView(&bs[i]))
	}
	return out
}
