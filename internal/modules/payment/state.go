package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/metrics"
)

// outcome is the target state a provider signal asks for. Empty fields leave
// that axis alone.
type outcome struct {
	payment  domain.PaymentStatus
	status   domain.BookingStatus
	intentID string
}

var eventOutcomes = map[string]outcome{
	EventIntentSucceeded: {payment: domain.PaymentPaid, status: domain.BookingConfirmed},
	EventIntentFailed:    {payment: domain.PaymentFailed},
	EventIntentCanceled:  {payment: domain.PaymentCancelled, status: domain.BookingCancelled},
	EventChargeRefunded:  {payment: domain.PaymentRefunded},
}

// stateApplier moves bookings along both state machines on behalf of the
// provider. Forbidden transitions are skipped and logged. The booking status
// only moves when the payment side of the outcome was accepted.
type stateApplier struct {
	bookings BookingStore
	notifier events.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

type applyResult struct {
	changed  bool
	rejected bool
}

func (a *stateApplier) apply(ctx context.Context, b *domain.Booking, o outcome, source string) (applyResult, error) {
	var (
		res   applyResult
		patch domain.BookingPatch
		now   = a.now().UTC()
		prev  = b.Status
	)

	if o.payment != "" && o.payment != b.PaymentStatus {
		if b.PaymentStatus.CanTransitionTo(o.payment) {
			next := o.payment
			patch.PaymentStatus = &next
			if next == domain.PaymentPaid {
				patch.PaidAt = &now
			}
		} else {
			res.rejected = true
			a.log.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"from":       b.PaymentStatus,
				"to":         o.payment,
				"source":     source,
			}).Warn("payment status transition not allowed, skipped")
		}
	}

	if o.status != "" && o.status != b.Status && !res.rejected {
		if b.Status.CanTransitionTo(o.status) {
			next := o.status
			patch.Status = &next
			if next == domain.BookingCancelled {
				patch.CancelledAt = &now
			}
		} else {
			res.rejected = true
			a.log.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"from":       b.Status,
				"to":         o.status,
				"source":     source,
			}).Warn("booking status transition not allowed, skipped")
		}
	}

	if o.intentID != "" && o.intentID != b.PaymentIntentID && patch.PaymentStatus != nil {
		id := o.intentID
		patch.PaymentIntentID = &id
	}

	if patch.Empty() {
		return res, nil
	}
	if err := a.bookings.Update(ctx, b.ID, patch); err != nil {
		return res, fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	patch.Apply(b)
	res.changed = true

	if patch.Status != nil {
		metrics.BookingTransitions.WithLabelValues(string(prev), string(b.Status)).Inc()
	}
	a.log.WithFields(logrus.Fields{
		"booking_id":     b.ID,
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
		"source":         source,
	}).Info("booking payment state updated")
	_ = a.notifier.BookingChanged(ctx, events.NewBookingStatusChanged(b, prev, source))

	return res, nil
}
