package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"localguide/internal/domain"
	"localguide/internal/events"
	"localguide/internal/middleware"
	"localguide/internal/pkg/jwt"
	"localguide/internal/pkg/logger"
)

type fakeUsers map[int64]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestHub_BookingChangedReachesBothParties(t *testing.T) {
	hub := NewHub()
	tourist := hub.register(1)
	guide := hub.register(2)
	stranger := hub.register(3)

	ev := events.BookingStatusChanged{BookingID: 10, TouristID: 1, GuideID: 2, Status: domain.BookingConfirmed, PaymentStatus: domain.PaymentPaid}
	require.NoError(t, hub.BookingChanged(context.Background(), ev))

	for _, c := range []*client{tourist, guide} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "booking.updated", msg.Type)
			assert.Equal(t, BookingPayload{ID: 10, Status: "confirmed", PaymentStatus: "paid"}, msg.Payload)
		default:
			t.Fatalf("user %d got nothing", c.userID)
		}
	}
	assert.Empty(t, stranger.send)
}

func TestHub_DropsForSlowConsumer(t *testing.T) {
	hub := NewHub()
	c := hub.register(1)

	for i := 0; i < sendBuffer; i++ {
		assert.Equal(t, 1, hub.SendToUser(1, Message{Type: "x"}))
	}
	assert.Equal(t, 0, hub.SendToUser(1, Message{Type: "x"}))

	hub.unregister(c)
	assert.False(t, hub.IsOnline(1))
}

func TestServeWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := jwt.New("secret", time.Hour)
	auth := middleware.NewAuthenticator(tokens, fakeUsers{7: {ID: 7, Role: domain.RoleTourist, IsActive: true}})
	hub := NewHub()

	router := gin.New()
	router.GET("/ws", NewHandler(hub, auth, nil, logger.Discard()).ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.GenerateToken(7, "tourist")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	hub.SendToUser(7, Message{Type: "booking.updated", Payload: BookingPayload{ID: 1, Status: "cancelled", PaymentStatus: "cancelled"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type    string         `json:"type"`
		Payload BookingPayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "booking.updated", got.Type)
	assert.Equal(t, "cancelled", got.Payload.Status)
}
