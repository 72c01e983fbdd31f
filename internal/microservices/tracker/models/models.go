package models

import "table-orders/internal/domain"

type FrameType string

const (
	FrameOrders FrameType = "orders"
	FrameError  FrameType = "error"
)

// Frame is one message on the staff websocket: the full order list after a
// resync, newest first.
type Frame struct {
	Type    FrameType      `json:"type"`
	Version int            `json:"version"`
	Orders  []domain.Order `json:"orders"`
	Error   string         `json:"error,omitempty"`
}
