package live

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"localguide/internal/middleware"
	"localguide/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Handler struct {
	hub      *Hub
	auth     *middleware.Authenticator
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. allowedOrigins mirrors the CORS
// list; an empty list accepts any origin.
func NewHandler(hub *Hub, auth *middleware.Authenticator, allowedOrigins []string, log logrus.FieldLogger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		hub:  hub,
		auth: auth,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// ServeWS upgrades GET /ws?token=JWT. Browsers cannot set headers on
// websocket requests, so the token travels in the query string.
func (h *Handler) ServeWS(c *gin.Context) {
	p, err := h.auth.Authenticate(c.Request.Context(), c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, middleware.ErrMissingToken):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthenticated, "token query parameter is required")
		case errors.Is(err, middleware.ErrTokenExpired):
			response.Error(c, http.StatusUnauthorized, response.CodeTokenExpired, "Token expired, log in again")
		case errors.Is(err, middleware.ErrAccountDisabled):
			response.Error(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is deactivated")
		default:
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredential, "Invalid token")
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	cl := h.hub.register(p.UserID)
	log := h.log.WithField("user_id", p.UserID)
	log.Debug("websocket connected")

	go h.writePump(conn, cl)
	h.readPump(conn, cl)
	log.Debug("websocket disconnected")
}

// readPump only drains control frames; clients do not send commands.
func (h *Handler) readPump(conn *websocket.Conn, cl *client) {
	defer func() {
		h.hub.unregister(cl)
		_ = conn.Close()
	}()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", cl.userID).Debug("websocket read error")
			}
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
