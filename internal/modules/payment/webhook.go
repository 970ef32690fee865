package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/metrics"
)

// WebhookProcessor turns verified provider deliveries into booking state
// changes. Each provider event id is applied at most once.
type WebhookProcessor struct {
	gateway  Gateway
	bookings BookingStore
	events   EventStore
	state    *stateApplier
	log      logrus.FieldLogger
}

func NewWebhookProcessor(gateway Gateway, bookings BookingStore, store EventStore, notifier events.Notifier, log logrus.FieldLogger) *WebhookProcessor {
	if notifier == nil {
		notifier = events.Noop{}
	}
	return &WebhookProcessor{
		gateway:  gateway,
		bookings: bookings,
		events:   store,
		state:    &stateApplier{bookings: bookings, notifier: notifier, log: log, now: time.Now},
		log:      log,
	}
}

// Handle verifies and applies one delivery. Errors other than
// ErrInvalidSignature and ErrMalformedEvent mean the delivery was not
// recorded and should be retried by the provider.
func (w *WebhookProcessor) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := w.gateway.ParseEvent(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		case errors.Is(err, ErrMalformedEvent):
			metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		}
		return nil, err
	}

	res := &WebhookResult{EventID: ev.ID, Type: ev.Type}
	log := w.log.WithFields(logrus.Fields{
		"event_id":          ev.ID,
		"event_type":        ev.Type,
		"payment_intent_id": ev.IntentID,
	})

	seen, err := w.events.Exists(ctx, ev.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
		return nil, fmt.Errorf("check event %s: %w", ev.ID, err)
	}
	if seen {
		res.Outcome = OutcomeDuplicate
		metrics.WebhookEvents.WithLabelValues(ev.Type, OutcomeDuplicate).Inc()
		log.Debug("duplicate webhook delivery acknowledged")
		return res, nil
	}

	target, handled := eventOutcomes[ev.Type]
	if !handled {
		res.Outcome = OutcomeIgnored
		return res, w.record(ctx, ev, nil, res)
	}

	b, viaMetadata, err := w.findBooking(ctx, ev)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
		return nil, err
	}
	if b == nil {
		res.Outcome = OutcomeUnmatched
		log.Warn("webhook event does not match any booking")
		return res, w.record(ctx, ev, nil, res)
	}
	res.BookingID = b.ID

	if staleIntent(b, ev.IntentID) {
		res.Outcome = OutcomeIgnored
		log.WithFields(logrus.Fields{
			"booking_id":        b.ID,
			"booking_intent_id": b.PaymentIntentID,
			"payment_status":    b.PaymentStatus,
		}).Warn("event for a superseded payment intent, booking left unchanged")
		return res, w.record(ctx, ev, &b.ID, res)
	}

	if viaMetadata {
		// a hosted checkout pays through its own intent; keep the booking pointing at it
		target.intentID = ev.IntentID
	}

	applied, err := w.state.apply(ctx, b, target, "webhook."+ev.Type)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
		return nil, err
	}

	res.Outcome = OutcomeApplied
	if applied.rejected && !applied.changed {
		res.Outcome = OutcomeIgnored
	}
	return res, w.record(ctx, ev, &b.ID, res)
}

// History lists the recorded deliveries for a booking the caller takes part in.
func (w *WebhookProcessor) History(ctx context.Context, p domain.Principal, bookingID int64) ([]domain.PaymentEvent, error) {
	b, err := w.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if !p.IsAdmin() && !p.Is(b.TouristID) && !p.Is(b.GuideID) {
		return nil, ErrForbidden
	}
	return w.events.ListByBooking(ctx, b.ID)
}

// findBooking resolves the booking by the bookingId metadata first and by
// the payment intent id second. A nil booking without error means no match.
func (w *WebhookProcessor) findBooking(ctx context.Context, ev *Event) (*domain.Booking, bool, error) {
	if raw := ev.Metadata[MetaBookingID]; raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			b, err := w.bookings.GetByID(ctx, id)
			switch {
			case err == nil:
				return b, true, nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, false, fmt.Errorf("load booking %d: %w", id, err)
			}
		}
	}

	if ev.IntentID == "" {
		return nil, false, nil
	}
	b, err := w.bookings.GetByPaymentIntentID(ctx, ev.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load booking by intent %s: %w", ev.IntentID, err)
	}
	return b, false, nil
}

// staleIntent reports whether the event belongs to an intent other than the
// one that settled the booking.
func staleIntent(b *domain.Booking, intentID string) bool {
	if intentID == "" || b.PaymentIntentID == "" || intentID == b.PaymentIntentID {
		return false
	}
	return b.PaymentStatus == domain.PaymentPaid || b.PaymentStatus == domain.PaymentRefunded
}

func (w *WebhookProcessor) record(ctx context.Context, ev *Event, bookingID *int64, res *WebhookResult) error {
	metrics.WebhookEvents.WithLabelValues(ev.Type, res.Outcome).Inc()
	err := w.events.Record(ctx, &domain.PaymentEvent{
		ProviderEventID: ev.ID,
		Type:            ev.Type,
		BookingID:       bookingID,
		PaymentIntentID: ev.IntentID,
		Outcome:         domain.PaymentEventOutcome(res.Outcome),
	})
	if err != nil {
		return fmt.Errorf("record event %s: %w", ev.ID, err)
	}
	return nil
}
