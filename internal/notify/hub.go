// Package notify fans lifecycle notifications out to websocket subscribers.
// It is a read-only surface: subscribers receive committed events and cannot
// invoke operations through it.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/json0755/call-option-token/internal/event"
	"github.com/json0755/call-option-token/internal/infra"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Envelope is the wire format for a broadcast event.
type Envelope struct {
	Type  string      `json:"type"`
	Event event.Event `json:"event"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket subscribers and broadcasts committed lifecycle events.
// Slow consumers are dropped rather than allowed to backpressure the
// instrument hotpath.
type Hub struct {
	upgrader websocket.Upgrader
	limiter  *infra.RateLimiter
	bufSize  int

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates a hub. limiter gates new subscriber accepts and may be nil.
func NewHub(limiter *infra.RateLimiter, sendBufferSize int) *Hub {
	if sendBufferSize <= 0 {
		sendBufferSize = 16
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		limiter: limiter,
		bufSize: sendBufferSize,
		clients: make(map[string]*client),
	}
}

// Publish broadcasts a committed event to all subscribers.
func (h *Hub) Publish(ev event.Event) {
	env := Envelope{Type: typeName(ev.GetType()), Event: ev}
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to marshal event", slog.Uint64("seq", ev.GetSeq()), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Slow consumer: close rather than block the publisher.
			slog.Warn("dropping slow subscriber", slog.String("id", c.id))
			go h.drop(c)
		}
	}
}

// ServeHTTP upgrades a subscriber connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.TryAcquire() {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.bufSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	slog.Info("subscriber connected", slog.String("id", c.id))

	go h.writeLoop(c)
	go h.readLoop(c)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(c.send)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("subscriber write failed", slog.String("id", c.id), slog.Any("error", err))
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards inbound messages and detects disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			slog.Info("subscriber disconnected", slog.String("id", c.id))
			h.drop(c)
			return
		}
	}
}

func typeName(t event.Type) string {
	switch t {
	case event.EvIssued:
		return "issued"
	case event.EvExercised:
		return "exercised"
	case event.EvExpired:
		return "expired"
	default:
		return "unknown"
	}
}
