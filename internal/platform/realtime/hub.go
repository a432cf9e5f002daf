package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Yunusinusah/offline-voting/internal/shared/events"

	"github.com/coder/websocket"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
)

type client struct {
	send chan []byte
}

// Hub fans bus events out to connected admin dashboards. A dashboard that
// cannot keep up is disconnected rather than slowing the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Broadcast matches the bus subscriber signature.
func (h *Hub) Broadcast(_ context.Context, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			close(c.send)
			delete(h.clients, c)
			h.logger.Warn("dropping slow dashboard client",
				"event", "realtime_client_dropped",
				"module", "internal/platform/realtime",
				"layer", "platform",
				"event_type", event.EventType,
			)
		}
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until either side closes.
// Messages sent by the dashboard are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("dashboard websocket upgrade failed",
			"event", "realtime_accept_failed",
			"module", "internal/platform/realtime",
			"layer", "platform",
			"error", err.Error(),
		)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c := &client{send: make(chan []byte, clientBuffer)}
	h.register(c)
	defer h.unregister(c)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "client too slow")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
