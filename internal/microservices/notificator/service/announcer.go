package service

import (
	"context"
	"encoding/json"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/domain"
)

type Announcer interface {
	Announce(ctx context.Context, order domain.Order) error
}

// LocalAnnouncer dispatches in the calling process.
type LocalAnnouncer struct {
	ns NotificatorServiceInterface
}

func NewLocalAnnouncer(ns NotificatorServiceInterface) *LocalAnnouncer {
	return &LocalAnnouncer{ns: ns}
}

func (a *LocalAnnouncer) Announce(ctx context.Context, order domain.Order) error {
	_, err := a.ns.DispatchOrder(ctx, order.ID)
	return err
}

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp091.Table, correlationID string, persistent bool) error
}

// RabbitAnnouncer hands the order to the notifier process via orders_topic.
type RabbitAnnouncer struct {
	pub Publisher
}

func NewRabbitAnnouncer(pub Publisher) *RabbitAnnouncer {
	return &RabbitAnnouncer{pub: pub}
}

func (a *RabbitAnnouncer) Announce(ctx context.Context, order domain.Order) error {
	body, err := json.Marshal(domain.OrderCreatedMessage{
		OrderID:   order.ID,
		TableName: order.TableName,
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return err
	}
	return a.pub.Publish(ctx, rabbitmq.OrdersExchange, rabbitmq.OrderCreatedKey, body,
		amqp091.Table{"x-source": "order-service"}, order.ID, true)
}
