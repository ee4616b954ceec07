// server/internal/socket/hub.go
package socket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second
	// sendBuffer is how many messages may queue for one client before it is dropped.
	sendBuffer = 32
)

// ErrClientDropped is returned by Send when a recipient could not keep up and was disconnected.
var ErrClientDropped = errors.New("socket: client dropped, send buffer full")

// client wraps one connection. Only its writer goroutine writes to conn.
type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// enqueue never blocks. It reports false when the client's buffer is full.
func (c *client) enqueue(message []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Hub tracks the connected WebSocket clients. A user may hold several connections.
type Hub struct {
	clients map[*websocket.Conn]*client
	mu      sync.RWMutex
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	go h.writePump(c)
	h.logger.WithField("user_id", userID).Debug("websocket client registered")
}

// writePump drains the client's queue until the client is removed or a write fails.
func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.WithFields(logrus.Fields{"user_id": c.userID, "error": err}).Warn("websocket write failed, dropping client")
				h.drop(c)
				return
			}
		}
	}
}

// Unregister forgets conn. The caller owns closing it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		c.once.Do(func() { close(c.done) })
		h.logger.WithField("user_id", c.userID).Debug("websocket client unregistered")
	}
}

// drop removes a client the hub gave up on and closes its connection,
// which also ends the reader loop that owns it.
func (h *Hub) drop(c *client) {
	h.Unregister(c.conn)
	c.conn.Close()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues message for every connection of userID. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	var err error
	for _, c := range h.snapshot() {
		if c.userID != userID {
			continue
		}
		if !c.enqueue(message) {
			h.drop(c)
			err = ErrClientDropped
		}
	}
	return err
}

// Broadcast queues message for every connected client and returns without waiting on the network.
// Clients whose queue is full are dropped.
func (h *Hub) Broadcast(message []byte) {
	for _, c := range h.snapshot() {
		if !c.enqueue(message) {
			h.logger.WithField("user_id", c.userID).Warn("websocket client too slow, dropping")
			h.drop(c)
		}
	}
}

func (h *Hub) snapshot() []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}
