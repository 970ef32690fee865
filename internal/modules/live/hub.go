package live

import (
	"context"
	"sync"

	"localguide/internal/events"
)

const sendBuffer = 16

// Message is the frame pushed to websocket clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type BookingPayload struct {
	ID            int64  `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

type client struct {
	userID int64
	send   chan Message
}

// Hub tracks open websocket clients per user. A user may have several tabs
// open; each gets its own buffered channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*client]struct{})}
}

func (h *Hub) register(userID int64) *client {
	c := &client{userID: userID, send: make(chan Message, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; ok {
		delete(conns, c)
		close(c.send)
	}
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
}

// SendToUser queues msg for every connection of userID and reports how many
// accepted it. Slow consumers with a full buffer miss the message.
func (h *Hub) SendToUser(userID int64, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// BookingChanged pushes the new state to the booking's tourist and guide.
func (h *Hub) BookingChanged(_ context.Context, ev events.BookingStatusChanged) error {
	msg := Message{
		Type: "booking.updated",
		Payload: BookingPayload{
			ID:            ev.BookingID,
			Status:        string(ev.Status),
			PaymentStatus: string(ev.PaymentStatus),
		},
	}
	h.SendToUser(ev.TouristID, msg)
	if ev.GuideID != ev.TouristID {
		h.SendToUser(ev.GuideID, msg)
	}
	return nil
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.clients {
		for c := range conns {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}
