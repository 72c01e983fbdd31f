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
	dto "table-orders/internal/microservices/order/domain/dto"
	"table-orders/internal/microservices/order/service"
)

type OrderHandler struct {
	service service.OrderServiceInterface
	log     *logger.Logger
}

func NewOrderHandler(s service.OrderServiceInterface, lg *logger.Logger) *OrderHandler {
	return &OrderHandler{service: s, log: lg}
}

func (oh *OrderHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	order, err := oh.service.SubmitOrder(r.Context(), req.TableName, dto.ConvertItems(req.Items))
	if err != nil {
		oh.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, dto.NewCreateOrderResponse(order))
}

func (oh *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oh.service.ListOrders(r.Context())
	if err != nil {
		oh.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orders)
}

func (oh *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := oh.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		oh.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

func (oh *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	order, err := oh.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		oh.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, order)
}

// writeError maps domain errors onto status codes.
func (oh *OrderHandler) writeError(w http.ResponseWriter, err error) {
	var pe *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		httpx.WriteProblem(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, domain.ErrInvalidItem):
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		httpx.WriteProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrMalformedOrder):
		oh.log.Error("order_malformed", err, nil)
		httpx.WriteProblem(w, http.StatusInternalServerError, "malformed_order", err.Error())
	case errors.As(err, &pe):
		oh.log.Error("db_error", err, map[string]any{"op": pe.Op})
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", "failed to access order store")
	default:
		oh.log.Error("request_failed", err, nil)
		httpx.WriteProblem(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

type DeviceHandler struct {
	service service.DeviceServiceInterface
	log     *logger.Logger
}

func NewDeviceHandler(s service.DeviceServiceInterface, lg *logger.Logger) *DeviceHandler {
	return &DeviceHandler{service: s, log: lg}
}

func (dh *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.FCMToken) == "" {
		httpx.WriteProblem(w, http.StatusBadRequest, "missing_token", "fcm_token is required")
		return
	}
	if err := dh.service.RegisterDevice(r.Context(), req.FCMToken); err != nil {
		dh.log.Error("db_error", err, nil)
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", "failed to register device")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
