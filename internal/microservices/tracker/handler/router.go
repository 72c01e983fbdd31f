package handler

import "github.com/go-chi/chi/v5"

func Routes(r chi.Router, h *Handler) {
	r.Get("/ws/orders", h.TrackerHandler.StaffWS)
}
