package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
)

const testSecret = "whsec_test_secret"

type memBookings struct {
	mu        sync.Mutex
	items     map[int64]*domain.Booking
	updates   []domain.BookingPatch
	updateErr error
}

func newMemBookings(list ...*domain.Booking) *memBookings {
	m := &memBookings{items: map[int64]*domain.Booking{}}
	for _, b := range list {
		m.items[b.ID] = b
	}
	return m
}

func (m *memBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) GetByPaymentIntentID(_ context.Context, intentID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.items {
		if b.PaymentIntentID == intentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memBookings) Update(_ context.Context, id int64, patch domain.BookingPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	b, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	patch.Apply(b)
	m.updates = append(m.updates, patch)
	return nil
}

func (m *memBookings) get(id int64) domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

type memEvents struct {
	mu        sync.Mutex
	recorded  []domain.PaymentEvent
	existsErr error
}

func (m *memEvents) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, ev := range m.recorded {
		if ev.ProviderEventID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEvents) Record(_ context.Context, ev *domain.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, *ev)
	return nil
}

func (m *memEvents) ListByBooking(_ context.Context, bookingID int64) ([]domain.PaymentEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PaymentEvent
	for _, ev := range m.recorded {
		if ev.BookingID != nil && *ev.BookingID == bookingID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fakeGateway keeps intents in memory and verifies webhooks with the real
// signature check.
type fakeGateway struct {
	mu        sync.Mutex
	intents   map[string]*Intent
	customers int
	sessions  []CheckoutParams
	created   []IntentParams
	getErr    error
	createErr error
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*Intent{}}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _ CustomerParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *fakeGateway) CreateIntent(_ context.Context, p IntentParams) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("pi_%d", g.seq)
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       IntentRequiresPaymentMethod,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Metadata:     p.Metadata,
	}
	g.intents[id] = in
	g.created = append(g.created, p)
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	in, ok := g.intents[id]
	if !ok {
		return nil, &ProviderError{HTTPStatus: 404, Code: "resource_missing", Message: "No such payment_intent"}
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p CheckoutParams) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, p)
	return &CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	return ParseStripeEvent(payload, signature, testSecret)
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = status
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.BookingStatusChanged
}

func (r *recordingNotifier) BookingChanged(_ context.Context, ev events.BookingStatusChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func intentEventPayload(t *testing.T, eventID, eventType, intentID, status string, meta map[string]string) []byte {
	t.Helper()
	obj := map[string]any{
		"id":       intentID,
		"object":   "payment_intent",
		"status":   status,
		"amount":   13000,
		"currency": "usd",
	}
	if meta != nil {
		obj["metadata"] = meta
	}
	return eventPayload(t, eventID, eventType, obj)
}

func chargeEventPayload(t *testing.T, eventID, intentID string) []byte {
	t.Helper()
	return eventPayload(t, eventID, EventChargeRefunded, map[string]any{
		"id":             "ch_1",
		"object":         "charge",
		"status":         "succeeded",
		"refunded":       true,
		"payment_intent": intentID,
	})
}

func eventPayload(t *testing.T, eventID, eventType string, obj map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": obj},
	})
	require.NoError(t, err)
	return raw
}

func sign(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	}).Header
}
