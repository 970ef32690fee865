package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCompleted: {},
	BookingCancelled: {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Staying in the same status is always allowed so repeated updates converge.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentCancelled PaymentStatus = "cancelled"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentPaid, PaymentFailed, PaymentCancelled},
	PaymentFailed:    {PaymentPaid, PaymentCancelled, PaymentPending},
	PaymentPaid:      {PaymentRefunded},
	PaymentRefunded:  {},
	PaymentCancelled: {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo is the payment-axis counterpart of BookingStatus.CanTransitionTo.
// A refund is only reachable from paid.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID                 int64         `json:"id" gorm:"primaryKey"`
	TouristID          int64         `json:"touristId" gorm:"index;not null"`
	GuideID            int64         `json:"guideId" gorm:"index;not null"`
	TourID             int64         `json:"tourId" gorm:"index;not null"`
	Date               time.Time     `json:"date"`
	NumberOfPeople     int           `json:"numberOfPeople"`
	TotalAmount        float64       `json:"totalAmount"`
	SpecialRequests    string        `json:"specialRequests,omitempty" gorm:"type:text"`
	Status             BookingStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	PaymentStatus      PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20);index;not null"`
	PaymentIntentID    string        `json:"paymentIntentId,omitempty" gorm:"type:varchar(255);index"`
	ProviderCustomerID string        `json:"-" gorm:"type:varchar(255)"`
	PaidAt             *time.Time    `json:"paidAt,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`

	Tourist *User `json:"-" gorm:"foreignKey:TouristID"`
	Guide   *User `json:"-" gorm:"foreignKey:GuideID"`
	Tour    *Tour `json:"-" gorm:"foreignKey:TourID"`
}

// BookingPatch lists the columns a booking update may touch. Nil fields are left alone.
type BookingPatch struct {
	Status             *BookingStatus
	PaymentStatus      *PaymentStatus
	PaymentIntentID    *string
	ProviderCustomerID *string
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CompletedAt        *time.Time
}

func (p BookingPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.PaymentStatus != nil {
		cols["payment_status"] = *p.PaymentStatus
	}
	if p.PaymentIntentID != nil {
		cols["payment_intent_id"] = *p.PaymentIntentID
	}
	if p.ProviderCustomerID != nil {
		cols["provider_customer_id"] = *p.ProviderCustomerID
	}
	if p.PaidAt != nil {
		cols["paid_at"] = *p.PaidAt
	}
	if p.CancelledAt != nil {
		cols["cancelled_at"] = *p.CancelledAt
	}
	if p.CompletedAt != nil {
		cols["completed_at"] = *p.CompletedAt
	}
	return cols
}

func (p BookingPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Apply copies the patch onto b so callers can return the post-update view
// without reloading.
func (p BookingPatch) Apply(b *Booking) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentIntentID != nil {
		b.PaymentIntentID = *p.PaymentIntentID
	}
	if p.ProviderCustomerID != nil {
		b.ProviderCustomerID = *p.ProviderCustomerID
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		b.PaidAt = &t
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		b.CancelledAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		b.CompletedAt = &t
	}
}

type BookingFilter struct {
	TouristID *int64
	GuideID   *int64
	Status    BookingStatus
}
