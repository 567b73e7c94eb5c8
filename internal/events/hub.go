// Package events broadcasts live comparison and masking activity to
// WebSocket subscribers.
package events

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/config"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// client is one connected WebSocket subscriber.
type client struct {
	id           string
	conn         *websocket.Conn
	send         chan Event
	subscription *SubscriptionRequest
}

// Hub maintains connected clients and fans events out to them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	config     config.EventsConfig
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	mu         sync.RWMutex
	stats      HubStats
	done       chan struct{}
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub(cfg config.EventsConfig, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		config:     cfg,
		logger:     logger,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Run processes registration and broadcast traffic until Stop is called.
func (h *Hub) Run() {
	h.logger.Info("Starting events hub", zap.String("component", "events"))
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case event := <-h.broadcast:
			h.fanOut(event)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) registerClient(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.stats.TotalConnections++
	active := int64(len(h.clients))
	h.mu.Unlock()

	h.logger.Info("Client connected",
		zap.String("component", "events"),
		zap.String("client_id", c.id),
		zap.Int64("active_connections", active))

	h.Broadcast(Event{
		Type:      EventTypeConnection,
		Timestamp: time.Now(),
		Data:      ConnectionEvent{Action: "connected", ClientID: c.id},
	})
}

func (h *Hub) unregisterClient(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	active := int64(len(h.clients))
	h.mu.Unlock()

	h.logger.Info("Client disconnected",
		zap.String("component", "events"),
		zap.String("client_id", c.id),
		zap.Int64("active_connections", active))
}

func (h *Hub) fanOut(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.TotalBroadcasts++
	h.stats.LastBroadcastTime = time.Now()

	for c := range h.clients {
		if !c.wants(event) {
			continue
		}
		select {
		case c.send <- event:
		default:
			// Slow consumer, drop the connection rather than block the hub.
			h.logger.Warn("Client send buffer full, closing connection",
				zap.String("component", "events"),
				zap.String("client_id", c.id))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (c *client) wants(event Event) bool {
	if c.subscription == nil {
		return true
	}
	for _, t := range c.subscription.Events {
		if t == event.Type {
			return true
		}
	}
	return false
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

// Broadcast queues an event for all subscribed clients. Events disabled by
// configuration are dropped silently; a full queue drops with a warning.
func (h *Hub) Broadcast(event Event) {
	if !h.enabled(event.Type) {
		return
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event",
			zap.String("component", "events"),
			zap.String("event_type", string(event.Type)))
	}
}

func (h *Hub) enabled(t EventType) bool {
	switch t {
	case EventTypeMasking:
		return h.config.BroadcastMasking
	case EventTypeRunStarted, EventTypePairCompared, EventTypeRunCompleted:
		return h.config.BroadcastRuns
	case EventTypeSystem:
		return h.config.BroadcastSystem
	case EventTypeConnection:
		return true
	default:
		return false
	}
}

// HandleWebSocket upgrades an HTTP request and attaches the client to the
// hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed",
			zap.String("component", "events"),
			zap.Error(err))
		return
	}

	bufSize := h.config.SendBufferMessages
	if bufSize <= 0 {
		bufSize = 256
	}
	c := &client{
		id:   fmt.Sprintf("client_%d", time.Now().UnixNano()),
		conn: conn,
		send: make(chan Event, bufSize),
	}

	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to write WebSocket message",
					zap.String("component", "events"),
					zap.String("client_id", c.id),
					zap.Error(err))
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

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.String("component", "events"),
					zap.String("client_id", c.id),
					zap.Error(err))
			}
			return
		}
		h.handleClientMessage(c, msg)
	}
}

func (h *Hub) handleClientMessage(c *client, msg ClientMessage) {
	switch msg.Type {
	case "subscribe":
		data, ok := msg.Data.(map[string]interface{})
		if !ok {
			return
		}
		raw, ok := data["events"].([]interface{})
		if !ok {
			return
		}
		sub := &SubscriptionRequest{}
		for _, v := range raw {
			if s, ok := v.(string); ok {
				sub.Events = append(sub.Events, EventType(s))
			}
		}
		h.mu.Lock()
		c.subscription = sub
		h.mu.Unlock()
		h.logger.Info("Client subscription updated",
			zap.String("component", "events"),
			zap.String("client_id", c.id))
	case "ping":
		select {
		case c.send <- Event{Type: "pong", Timestamp: time.Now(), Data: map[string]string{"message": "pong"}}:
		default:
		}
	}
}

// GetStats returns a snapshot of hub counters.
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := h.stats
	stats.ActiveConnections = int64(len(h.clients))
	return stats
}
