// Package stream pushes fresh portfolio analyses to WebSocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/risklens/internal/metrics"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 16
	broadcastSize  = 256
)

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans portfolio updates out to the connections subscribed to each user.
// It implements portfolio.Notifier.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*client]struct{}
	broadcast chan portfolio.Update
	upgrader  websocket.Upgrader
	logger    *logger.Logger
}

// NewHub creates a new hub. Call Run before serving connections.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]map[*client]struct{}),
		broadcast: make(chan portfolio.Update, broadcastSize),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger: log.WithComponent("stream"),
	}
}

// Run delivers published updates until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case u := <-h.broadcast:
			h.deliver(u)
		}
	}
}

// Publish queues an update. Updates are dropped when the queue is full so mutations never block.
func (h *Hub) Publish(u portfolio.Update) {
	select {
	case h.broadcast <- u:
	default:
		h.logger.WithField("user_id", u.UserID).Warn("Stream queue full, update dropped")
	}
}

// Clients returns the number of connections subscribed to userID
func (h *Hub) Clients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(u portfolio.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[u.UserID] {
		select {
		case c.send <- data:
		default:
			// slow consumer
			h.removeLocked(c)
		}
	}
}

// Serve upgrades the request and subscribes the connection to userID.
// initial, when non-nil, is sent before any published update.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, initial *portfolio.Update) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBufferSize)}
	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	metrics.StreamClients.Inc()
	h.logger.WithField("user_id", userID).Debug("Stream client connected")

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.StreamClients.Dec()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}

// readPump keeps the read deadline alive and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine writing to the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
