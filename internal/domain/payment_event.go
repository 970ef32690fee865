package domain

import "time"

type PaymentEventOutcome string

const (
	PaymentEventApplied   PaymentEventOutcome = "applied"
	PaymentEventIgnored   PaymentEventOutcome = "ignored"
	PaymentEventUnmatched PaymentEventOutcome = "unmatched"
)

// PaymentEvent records every verified provider webhook delivery. The unique
// provider event id doubles as the duplicate-delivery guard.
type PaymentEvent struct {
	ID              int64               `gorm:"primaryKey" json:"id"`
	ProviderEventID string              `gorm:"type:varchar(255);uniqueIndex;not null" json:"providerEventId"`
	Type            string              `gorm:"type:varchar(100);index;not null" json:"type"`
	BookingID       *int64              `gorm:"index" json:"bookingId,omitempty"`
	PaymentIntentID string              `gorm:"type:varchar(255);index" json:"paymentIntentId,omitempty"`
	Outcome         PaymentEventOutcome `gorm:"type:varchar(20);not null" json:"outcome"`
	ReceivedAt      time.Time           `json:"receivedAt"`
}

func (PaymentEvent) TableName() string { return "payment_events" }
