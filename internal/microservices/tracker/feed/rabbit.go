package feed

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

// Rabbit fans change events out through the orders_changes exchange. Every
// subscription gets an exclusive auto-delete queue. One Rabbit serves one
// named channel.
type Rabbit struct {
	rmq     *rabbitmq.Client
	channel string
	log     *logger.Logger
}

func NewRabbit(rmq *rabbitmq.Client, channel string, lg *logger.Logger) *Rabbit {
	if channel == "" {
		channel = domain.OrdersChannel
	}
	return &Rabbit{rmq: rmq, channel: channel, log: lg}
}

func (r *Rabbit) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.rmq.Publish(ctx, rabbitmq.ChangesExchange, r.channel, body,
		amqp091.Table{"x-source": "order-service"}, ev.RecordID, false)
}

func (r *Rabbit) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if err := checkChannel(r.channel, channel); err != nil {
		return nil, err
	}
	ch, err := r.rmq.NewChannel()
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare change queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", rabbitmq.ChangesExchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind change queue: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	closed := ch.NotifyClose(make(chan *amqp091.Error, 1))

	subCtx, cancel := context.WithCancel(ctx)
	sub, out := newSubscription(16, cancel)

	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-subCtx.Done():
				return
			case e, ok := <-closed:
				if ok && e != nil {
					sub.fail(e)
				} else {
					sub.fail(errors.New("change channel closed"))
				}
				return
			case d, ok := <-msgs:
				if !ok {
					sub.fail(errors.New("change delivery stopped"))
					return
				}
				select {
				case out <- decode(d.Body, r.log):
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	r.log.Debug("feed_subscribed", map[string]any{"driver": "rabbitmq", "queue": q.Name})
	return sub, nil
}
