package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCompleted, BookingPending, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingConfirmed, BookingConfirmed, true},
		{BookingPending, BookingStatus("archived"), false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentStatus_RefundOnlyFromPaid(t *testing.T) {
	assert.True(t, PaymentPaid.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentPending.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentFailed.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentCancelled.CanTransitionTo(PaymentRefunded))

	// retry after failure
	assert.True(t, PaymentFailed.CanTransitionTo(PaymentPaid))
	// late failure must not undo a payment
	assert.False(t, PaymentPaid.CanTransitionTo(PaymentFailed))
	assert.True(t, PaymentRefunded.CanTransitionTo(PaymentRefunded))
}

func TestBookingPatch_ColumnsAndApply(t *testing.T) {
	status := BookingConfirmed
	paid := PaymentPaid
	now := time.Now()

	p := BookingPatch{Status: &status, PaymentStatus: &paid, PaidAt: &now}
	cols := p.Columns()
	assert.Len(t, cols, 3)
	assert.Equal(t, BookingConfirmed, cols["status"])
	assert.Equal(t, PaymentPaid, cols["payment_status"])

	b := &Booking{Status: BookingPending, PaymentStatus: PaymentPending}
	p.Apply(b)
	assert.Equal(t, BookingConfirmed, b.Status)
	assert.Equal(t, PaymentPaid, b.PaymentStatus)
	assert.NotNil(t, b.PaidAt)

	assert.True(t, BookingPatch{}.Empty())
}
