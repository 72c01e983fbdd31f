package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"table-orders/internal/common/logger"
	"table-orders/internal/microservices/tracker/models"
	"table-orders/internal/microservices/tracker/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // staff screens run on the LAN
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 25 * time.Second
)

type TrackerHandler struct {
	service *service.Service
	hub     *Hub
	log     *logger.Logger
}

func NewTrackerHandler(svc *service.Service, hub *Hub, lg *logger.Logger) *TrackerHandler {
	return &TrackerHandler{service: svc, hub: hub, log: lg}
}

// wsClient is one staff screen. Writes are serialized; the SyncClient and
// the ping ticker both write.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(f models.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// StaffWS streams the full order list to the screen after every resync.
func (h *TrackerHandler) StaffWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_failed", err, nil)
		return
	}
	cl := &wsClient{conn: conn}

	var client *service.SyncClient
	view := service.NewStaffView(func(f models.Frame) {
		if err := cl.write(f); err != nil {
			h.log.Warn("ws_write_failed", err, nil)
			client.Close()
		}
	})
	client = h.service.NewClient(view)

	h.hub.Register(cl, client)
	defer h.hub.Unregister(cl)
	h.log.Info("staff_view_connected", map[string]any{"remote": r.RemoteAddr, "clients": h.hub.Count()})

	go func() {
		if err := client.Run(r.Context()); err != nil {
			h.log.Warn("staff_view_sync_stopped", err, nil)
		}
	}()

	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-t.C:
				if err := cl.ping(); err != nil {
					client.Close()
					_ = conn.Close()
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
