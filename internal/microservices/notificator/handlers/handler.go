package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"table-orders/internal/common/httpx"
	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/service"
)

type NotifyRequest struct {
	OrderID string `json:"orderId"`
}

type summaryBody struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type NotificationHandler struct {
	service service.NotificatorServiceInterface
	log     *logger.Logger
}

func NewNotificationHandler(s service.NotificatorServiceInterface, lg *logger.Logger) *NotificationHandler {
	return &NotificationHandler{service: s, log: lg}
}

func Routes(r chi.Router, h *NotificationHandler) {
	r.Post("/api/send-notification", h.SendNotification)
}

// SendNotification answers 200 whenever a dispatch ran, however many
// devices failed.
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		writeFailure(w, http.StatusBadRequest, "orderId is required")
		return
	}

	sum, err := h.service.DispatchOrder(r.Context(), strings.TrimSpace(req.OrderID))
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"summary": summaryBody{Total: sum.Total, Successful: sum.Successful, Failed: sum.Failed},
		})
	case errors.Is(err, domain.ErrMissingCredentials):
		writeFailure(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeFailure(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrNoTargets):
		writeFailure(w, http.StatusNotFound, domain.ErrNoTargets.Error())
	case errors.Is(err, domain.ErrRegistryUnavailable):
		writeFailure(w, http.StatusInternalServerError, "Failed to fetch FCM tokens")
	default:
		h.log.Error("notification_failed", err, map[string]any{"order_id": req.OrderID})
		writeFailure(w, http.StatusInternalServerError, "Failed to fetch order")
	}
}

func writeFailure(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, map[string]any{"success": false, "error": msg})
}
