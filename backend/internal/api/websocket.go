package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"graphpad/backend/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Websocket timing and buffer constants
const (
	// writeWait is the time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum message size allowed from a peer
	maxMessageSize = 512

	sendChannelSize = 256
)

// Actions carried by GraphEvent
const (
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// GraphEvent tells watchers that a user's graph changed
type GraphEvent struct {
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// envelope pairs a marshaled event with the user whose watchers receive it
type envelope struct {
	userID  string
	payload []byte
}

// client is a single websocket subscriber watching one user's graph
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Hub tracks watch clients and fans graph events out to the ones
// subscribed to the affected user. Start must run before clients
// connect; Stop closes every connection.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan envelope
	register   chan *client
	unregister chan *client

	mu     sync.RWMutex
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// upgrader accepts any origin: the CORS middleware has already decided
// who may talk to us.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a hub. Call Start exactly once, in its own goroutine.
func NewHub(log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start runs the hub event loop until Stop is called.
func (h *Hub) Start() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				c.conn.Close()
				metrics.WatchersConnected.Dec()
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			metrics.WatchersConnected.Inc()
			h.logger.Debug("Watch client connected",
				zap.String("user_id", c.userID),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				metrics.WatchersConnected.Dec()
			}
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.userID != env.userID {
					continue
				}
				select {
				case c.send <- env.payload:
				default:
					// Full send buffer means a stalled client, drop it
					// rather than hold up everyone else
					go func(stalled *client) {
						select {
						case h.unregister <- stalled:
						case <-h.ctx.Done():
						}
						stalled.conn.Close()
					}(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the hub down and waits for the event loop to finish.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

// Broadcast queues a graph event for delivery to the user's watchers.
// Delivery is best effort: a hub that cannot accept the event within a
// second drops it.
func (h *Hub) Broadcast(userID, action string) {
	payload, err := json.Marshal(GraphEvent{
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to marshal graph event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{userID: userID, payload: payload}:
	case <-time.After(time.Second):
		h.logger.Warn("Dropped graph event, hub busy",
			zap.String("user_id", userID),
			zap.String("action", action),
		)
	}
}

// ClientCount returns the number of connected watch clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection to detect disconnects and keep the
// pong handler ticking. Watchers never send us meaningful data.
func (c *client) readPump() {
	defer func() {
		// The hub may already be stopped, in which case nobody is
		// reading unregister
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("Watch client closed unexpectedly", zap.Error(err))
			}
			break
		}
	}
}

// writePump forwards queued events to the connection and pings the
// peer to keep it alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// serveWatch upgrades the request and subscribes the connection to one
// user's graph events.
func serveWatch(hub *Hub, userID string, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendChannelSize),
	}

	// A stopped hub no longer accepts registrations
	select {
	case c.hub.register <- c:
	case <-c.hub.ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
