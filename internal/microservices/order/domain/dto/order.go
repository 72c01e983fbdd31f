package dto

import (
	"time"

	"table-orders/internal/domain"
)

type CreateOrderRequest struct {
	TableName string           `json:"table_name"`
	Items     []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

type CreateOrderResponse struct {
	ID        string             `json:"id"`
	Status    domain.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	Total     int                `json:"total"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type RegisterDeviceRequest struct {
	FCMToken string `json:"fcm_token"`
}

// ConvertItems maps cart input to order items; normalization happens in the service.
func ConvertItems(inputs []OrderItemInput) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, domain.OrderItem{
			ID:       in.ID,
			Name:     in.Name,
			Price:    in.Price,
			Quantity: in.Quantity,
		})
	}
	return items
}

func NewCreateOrderResponse(o domain.Order) CreateOrderResponse {
	return CreateOrderResponse{ID: o.ID, Status: o.Status, CreatedAt: o.CreatedAt, Total: o.Total()}
}
