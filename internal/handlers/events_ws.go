package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
)

// EventsWSHandler streams dedupe telemetry events to connected dashboard
// clients over WebSocket. It implements jobs.EventPublisher: the telemetry
// worker hands it every event it persists.
type EventsWSHandler struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan database.DedupeEvent
}

// NewEventsWSHandler creates a new events WebSocket handler
func NewEventsWSHandler(log *logger.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		log: log.With("handler", "events_ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS perimeter upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// SetupRoutes sets up WebSocket routes
func (h *EventsWSHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/events", h.handleEvents)
}

// Publish fans an event out to all connected clients. Slow clients are
// skipped rather than blocking the telemetry worker.
func (h *EventsWSHandler) Publish(event database.DedupeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventsWSHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleEvents handles GET /ws/events
func (h *EventsWSHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan database.DedupeEvent, 32),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *EventsWSHandler) writeLoop(c *wsClient) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound messages and detects disconnects.
func (h *EventsWSHandler) readLoop(c *wsClient) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
