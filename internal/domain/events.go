package domain

import "time"

const OrdersChannel = "orders_changes"

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent signals that a row changed. Receivers re-read the store; the
// event itself is never used as the new state.
type ChangeEvent struct {
	Table      string     `json:"table"`
	Type       ChangeType `json:"type"`
	RecordID   string     `json:"record_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// OrderCreatedMessage is published to orders_topic when an order is persisted.
type OrderCreatedMessage struct {
	OrderID   string    `json:"order_id"`
	TableName string    `json:"table_name"`
	CreatedAt time.Time `json:"created_at"`
}
