package handler

import (
	"sync"

	"table-orders/internal/common/logger"
	"table-orders/internal/microservices/tracker/service"
)

type Handler struct {
	TrackerHandler *TrackerHandler
	Hub            *Hub
}

func New(svc *service.Service, lg *logger.Logger) *Handler {
	hub := NewHub()
	return &Handler{
		TrackerHandler: NewTrackerHandler(svc, hub, lg),
		Hub:            hub,
	}
}

// Hub tracks connected staff screens so they can be closed on shutdown.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]*service.SyncClient
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]*service.SyncClient)}
}

func (h *Hub) Register(c *wsClient, sc *service.SyncClient) {
	h.mu.Lock()
	h.clients[c] = sc
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *wsClient) {
	h.mu.Lock()
	sc, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		sc.Close()
	}
	_ = c.conn.Close()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every screen.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.Unregister(c)
	}
}
