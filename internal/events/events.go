// Package events fans booking status changes out to interested parties:
// the message broker, the live websocket feed and the ops Telegram chat.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"localguide/internal/domain"
)

// BookingStatusChanged is published whenever a booking's status or payment
// status moves.
type BookingStatusChanged struct {
	BookingID      int64                `json:"bookingId"`
	TouristID      int64                `json:"touristId"`
	GuideID        int64                `json:"guideId"`
	TourID         int64                `json:"tourId"`
	Status         domain.BookingStatus `json:"status"`
	PreviousStatus domain.BookingStatus `json:"previousStatus"`
	PaymentStatus  domain.PaymentStatus `json:"paymentStatus"`
	Source         string               `json:"source"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

func NewBookingStatusChanged(b *domain.Booking, previous domain.BookingStatus, source string) BookingStatusChanged {
	return BookingStatusChanged{
		BookingID:      b.ID,
		TouristID:      b.TouristID,
		GuideID:        b.GuideID,
		TourID:         b.TourID,
		Status:         b.Status,
		PreviousStatus: previous,
		PaymentStatus:  b.PaymentStatus,
		Source:         source,
		OccurredAt:     time.Now().UTC(),
	}
}

type Notifier interface {
	BookingChanged(ctx context.Context, ev BookingStatusChanged) error
}

type Noop struct{}

func (Noop) BookingChanged(context.Context, BookingStatusChanged) error { return nil }

// Multi delivers to every notifier. Failures are logged and swallowed so a
// broken sink never fails the request that caused the change.
type Multi struct {
	notifiers []Notifier
	log       logrus.FieldLogger
}

func NewMulti(log logrus.FieldLogger, notifiers ...Notifier) *Multi {
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &Multi{notifiers: active, log: log}
}

func (m *Multi) BookingChanged(ctx context.Context, ev BookingStatusChanged) error {
	for _, n := range m.notifiers {
		if err := n.BookingChanged(ctx, ev); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"booking_id": ev.BookingID,
				"status":     ev.Status,
				"notifier":   typeName(n),
			}).Warn("booking notification failed")
		}
	}
	return nil
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
