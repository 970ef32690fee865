package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"localguide/internal/config"
	"localguide/internal/database"
	"localguide/internal/domain"
	"localguide/internal/modules/payment"
	"localguide/internal/pkg/jwt"
	"localguide/internal/pkg/logger"
)

const webhookSecret = "whsec_server_test"

// stubGateway hands out sequential intents and verifies webhooks with the
// real signature check.
type stubGateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*payment.Intent
}

func (g *stubGateway) CreateCustomer(context.Context, payment.CustomerParams) (string, error) {
	return "cus_test", nil
}

func (g *stubGateway) CreateIntent(_ context.Context, p payment.IntentParams) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("pi_srv_%d", g.seq)
	in := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       payment.IntentRequiresPaymentMethod,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Metadata:     p.Metadata,
	}
	g.intents[id] = in
	cp := *in
	return &cp, nil
}

func (g *stubGateway) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return nil, &payment.ProviderError{HTTPStatus: http.StatusNotFound, Code: "resource_missing"}
	}
	cp := *in
	return &cp, nil
}

func (g *stubGateway) CreateCheckoutSession(context.Context, payment.CheckoutParams) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_srv", URL: "https://checkout.example/cs_srv"}, nil
}

func (g *stubGateway) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	return payment.ParseStripeEvent(payload, signature, webhookSecret)
}

type testApp struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	tokens *jwt.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:                  "test",
		BcryptCost:              bcrypt.MinCost,
		PaymentCurrency:         "usd",
		AppBaseURL:              "http://localhost:3000",
		RateLimitCapacity:       30,
		RateLimitRefillInterval: time.Second,
		CORSAllowedOrigins:      []string{"http://localhost:3000"},
	}
	tokens := jwt.New("server-test-secret", time.Hour)

	r, err := NewRouter(Deps{
		Config:  cfg,
		Log:     logger.Discard(),
		DB:      db,
		Tokens:  tokens,
		Gateway: &stubGateway{intents: map[string]*payment.Intent{}},
	})
	require.NoError(t, err)

	return &testApp{t: t, router: r, db: db, tokens: tokens}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) webhook(payload []byte, signature string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedUser inserts an account directly, which is the only way to get an admin.
func (a *testApp) seedUser(name string, role domain.UserRole) (*domain.User, string) {
	a.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(a.t, err)

	u := &domain.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(a.t, a.db.Create(u).Error)

	token, err := a.tokens.GenerateToken(u.ID, string(role))
	require.NoError(a.t, err)
	return u, token
}

func (a *testApp) createTour(guideToken string) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/tours", guideToken, map[string]any{
		"title":         "Old Town Walk",
		"price":         65,
		"durationHours": 3,
		"maxGroupSize":  8,
		"category":      "history",
		"city":          "Almaty",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(a.t, w)["data"].(map[string]any)["id"].(float64))
}

func (a *testApp) createBooking(touristToken string, guideID, tourID int64) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/bookings", touristToken, map[string]any{
		"guide":          guideID,
		"tour":           tourID,
		"date":           time.Now().Add(72 * time.Hour).Format("2006-01-02"),
		"numberOfPeople": 2,
		"totalAmount":    130,
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return bookingField(a.t, w, "id").(int64)
}

func (a *testApp) booking(token string, id int64) map[string]any {
	a.t.Helper()
	w := a.do(http.MethodGet, fmt.Sprintf("/api/bookings/%d", id), token, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode(a.t, w)["booking"].(map[string]any)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func bookingField(t *testing.T, w *httptest.ResponseRecorder, key string) any {
	t.Helper()
	v := decode(t, w)["booking"].(map[string]any)[key]
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode(t, w)["error"].(map[string]any)["code"].(string)
}

func signedIntentEvent(t *testing.T, eventID, eventType, intentID, status string, meta map[string]string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"created":     time.Now().Unix(),
		"data": map[string]any{"object": map[string]any{
			"id":       intentID,
			"object":   "payment_intent",
			"status":   status,
			"amount":   13000,
			"currency": "usd",
			"metadata": meta,
		}},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	return payload, signed.Header
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])

	w = app.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Aru",
		"email":    "aru@example.com",
		"password": "supersecret",
		"role":     "tourist",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Aru",
		"email":    "aru@example.com",
		"password": "supersecret",
		"role":     "tourist",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "aru@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["data"].(map[string]any)["token"].(string)

	w = app.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aru@example.com", decode(t, w)["data"].(map[string]any)["email"])

	w = app.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentWebhookConfirmsBooking(t *testing.T) {
	app := newTestApp(t)
	guide, guideToken := app.seedUser("Guide", domain.RoleGuide)
	_, touristToken := app.seedUser("Tourist", domain.RoleTourist)

	tourID := app.createTour(guideToken)
	bookingID := app.createBooking(touristToken, guide.ID, tourID)

	w := app.do(http.MethodPost, "/api/payments/create-intent", touristToken, map[string]any{"bookingId": bookingID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	intentID := body["paymentIntentId"].(string)
	assert.NotEmpty(t, body["clientSecret"])

	meta := map[string]string{payment.MetaBookingID: fmt.Sprint(bookingID)}
	payload, sig := signedIntentEvent(t, "evt_srv_1", payment.EventIntentSucceeded, intentID, payment.IntentSucceeded, meta)

	w = app.webhook(payload, sig)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, payment.OutcomeApplied, decode(t, w)["outcome"])

	b := app.booking(touristToken, bookingID)
	assert.Equal(t, "confirmed", b["status"])
	assert.Equal(t, "paid", b["paymentStatus"])
	assert.NotNil(t, b["paidAt"])

	t.Run("redelivery is a no-op", func(t *testing.T) {
		w := app.webhook(payload, sig)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payment.OutcomeDuplicate, decode(t, w)["outcome"])
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		w := app.webhook(payload, "t=1,v1=deadbeef")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("history lists the recorded event", func(t *testing.T) {
		w := app.do(http.MethodGet, fmt.Sprintf("/api/payments/bookings/%d/events", bookingID), touristToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "evt_srv_1")
	})

	t.Run("paid booking cannot be paid again", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/payments/create-intent", touristToken, map[string]any{"bookingId": bookingID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookingTransitions(t *testing.T) {
	app := newTestApp(t)
	guide, guideToken := app.seedUser("Guide", domain.RoleGuide)
	_, touristToken := app.seedUser("Tourist", domain.RoleTourist)
	_, adminToken := app.seedUser("Admin", domain.RoleAdmin)

	tourID := app.createTour(guideToken)
	bookingID := app.createBooking(touristToken, guide.ID, tourID)
	path := fmt.Sprintf("/api/bookings/%d", bookingID)

	w := app.do(http.MethodPatch, path, guideToken, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, w))

	w = app.do(http.MethodPatch, path, touristToken, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPatch, path, guideToken, map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodPatch, path, guideToken, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", bookingField(t, w, "status"))

	// terminal, even for an admin
	w = app.do(http.MethodPatch, path, adminToken, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewsUpdateRatings(t *testing.T) {
	app := newTestApp(t)
	guide, guideToken := app.seedUser("Guide", domain.RoleGuide)
	_, touristToken := app.seedUser("Tourist", domain.RoleTourist)
	tourID := app.createTour(guideToken)

	for _, rating := range []int{5, 4, 5} {
		id := app.createBooking(touristToken, guide.ID, tourID)
		path := fmt.Sprintf("/api/bookings/%d", id)

		// not yet completed
		if rating == 5 {
			w := app.do(http.MethodPost, "/api/reviews", touristToken, map[string]any{"bookingId": id, "rating": rating})
			require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		}

		require.Equal(t, http.StatusOK, app.do(http.MethodPatch, path, guideToken, map[string]any{"status": "confirmed"}).Code)
		require.Equal(t, http.StatusOK, app.do(http.MethodPatch, path, guideToken, map[string]any{"status": "completed"}).Code)

		w := app.do(http.MethodPost, "/api/reviews", touristToken, map[string]any{"bookingId": id, "rating": rating, "comment": "great"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = app.do(http.MethodPost, "/api/reviews", touristToken, map[string]any{"bookingId": id, "rating": rating})
		require.Equal(t, http.StatusConflict, w.Code)
	}

	w := app.do(http.MethodGet, fmt.Sprintf("/api/tours/%d", tourID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tour := decode(t, w)["data"].(map[string]any)
	assert.InDelta(t, 4.667, tour["rating"].(float64), 0.001)
	assert.EqualValues(t, 3, tour["reviewsCount"])

	w = app.do(http.MethodGet, fmt.Sprintf("/api/guides/%d/reviews", guide.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]any), 3)
}

func TestAdminSelfProtection(t *testing.T) {
	app := newTestApp(t)
	admin, adminToken := app.seedUser("Admin", domain.RoleAdmin)
	tourist, touristToken := app.seedUser("Tourist", domain.RoleTourist)

	w := app.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", admin.ID), adminToken, map[string]any{"role": "tourist"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SELF_ROLE_CHANGE", errorCode(t, w))

	w = app.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", admin.ID), adminToken, map[string]any{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SELF_DEACTIVATION", errorCode(t, w))

	w = app.do(http.MethodGet, "/api/admin/users", touristToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// deactivation applies to tokens already issued
	w = app.do(http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", tourist.ID), adminToken, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = app.do(http.MethodGet, "/api/auth/me", touristToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
