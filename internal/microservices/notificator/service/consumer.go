package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"table-orders/internal/common/logger"
	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/domain"
)

var (
	ErrRequeue = errors.New("requeue")     // nack(requeue=true)
	ErrDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

// Consumer reads order.created messages from notifications.q and fans each
// order out to the devices.
type Consumer struct {
	ns       NotificatorServiceInterface
	rmq      *rabbitmq.Client
	log      *logger.Logger
	Tag      string
	Prefetch int
}

func NewConsumer(ns NotificatorServiceInterface, rmq *rabbitmq.Client, prefetch int, lg *logger.Logger) *Consumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{ns: ns, rmq: rmq, log: lg, Tag: "notifier", Prefetch: prefetch}
}

func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.rmq.NewChannel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	closeCh := ch.NotifyClose(make(chan *amqp091.Error, 1))
	cancelCh := ch.NotifyCancel(make(chan string, 1))
	go func() {
		for {
			select {
			case e := <-closeCh:
				if e != nil {
					c.log.Error("amqp_channel_closed", e, map[string]any{"code": e.Code})
				}
				return
			case tag := <-cancelCh:
				if tag != "" {
					c.log.Error("consumer_canceled", nil, map[string]any{"tag": tag})
				}
			}
		}
	}()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		return err
	}
	msgs, err := ch.Consume(rabbitmq.NotificationsQueue, c.Tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.Info("consumer_started", map[string]any{"queue": rabbitmq.NotificationsQueue, "prefetch": c.Prefetch})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range msgs {
			err := c.HandleDelivery(ctx, d.Body, d.Redelivered)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, ErrDLQ):
				_ = d.Nack(false, false)
			default:
				_ = d.Nack(false, true)
			}
		}
	}()

	select {
	case <-ctx.Done():
		c.log.Info("graceful_shutdown", map[string]any{"tag": c.Tag})
		_ = ch.Cancel(c.Tag, false)
	case <-done:
		return errors.New("delivery channel closed")
	}
	<-done
	return nil
}

// HandleDelivery processes one message body. A nil error acks; ErrDLQ
// dead-letters; ErrRequeue puts it back once, a second failure dead-letters.
func (c *Consumer) HandleDelivery(ctx context.Context, body []byte, redelivered bool) error {
	var msg domain.OrderCreatedMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.OrderID == "" {
		c.log.Warn("message_malformed", err, map[string]any{"body": string(body)})
		return ErrDLQ
	}

	sum, err := c.ns.DispatchOrder(ctx, msg.OrderID)
	switch {
	case err == nil:
		c.log.Info("order_notified", map[string]any{
			"order_id":   msg.OrderID,
			"total":      sum.Total,
			"successful": sum.Successful,
			"failed":     sum.Failed,
		})
		return nil
	case errors.Is(err, domain.ErrNoTargets):
		return nil
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrMalformedOrder),
		errors.Is(err, domain.ErrMissingCredentials):
		c.log.Error("order_notify_failed", err, map[string]any{"order_id": msg.OrderID})
		return ErrDLQ
	default:
		c.log.Error("order_notify_failed", err, map[string]any{"order_id": msg.OrderID, "redelivered": redelivered})
		if redelivered {
			return ErrDLQ
		}
		return ErrRequeue
	}
}
