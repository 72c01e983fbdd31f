package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"table-orders/internal/common/logger"
	"table-orders/internal/microservices/order/service"
)

type Handler struct {
	OrderHandler  *OrderHandler
	DeviceHandler *DeviceHandler
}

func New(s *service.Service, lg *logger.Logger) *Handler {
	return &Handler{
		OrderHandler:  NewOrderHandler(s.OrderService, lg),
		DeviceHandler: NewDeviceHandler(s.DeviceService, lg),
	}
}

// Routes mounts the order API. maxConcurrent > 0 caps in-flight requests.
func Routes(r chi.Router, h *Handler, maxConcurrent int) {
	r.Route("/api/v1", func(r chi.Router) {
		if maxConcurrent > 0 {
			r.Use(middleware.Throttle(maxConcurrent))
		}
		r.Post("/orders", h.OrderHandler.AddOrder)
		r.Get("/orders", h.OrderHandler.ListOrders)
		r.Get("/orders/{id}", h.OrderHandler.GetOrder)
		r.Patch("/orders/{id}/status", h.OrderHandler.UpdateStatus)
		r.Post("/devices", h.DeviceHandler.RegisterDevice)
	})
}
