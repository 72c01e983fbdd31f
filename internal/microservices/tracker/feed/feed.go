// Package feed delivers change signals for the orders collection.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/connections/database"
	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/domain"
)

// ErrUnknownChannel is returned when a feed is asked for a channel it does
// not carry.
var ErrUnknownChannel = errors.New("unknown change channel")

func checkChannel(served, asked string) error {
	if asked != "" && asked != served {
		return fmt.Errorf("%w: feed serves %q, asked for %q", ErrUnknownChannel, served, asked)
	}
	return nil
}

// Subscription is one live listener. C is closed when the subscription ends,
// after which Err reports why (nil after Close).
type Subscription struct {
	C <-chan domain.ChangeEvent

	mu     sync.Mutex
	err    error
	once   sync.Once
	cancel func()
}

func newSubscription(buf int, cancel func()) (*Subscription, chan domain.ChangeEvent) {
	ch := make(chan domain.ChangeEvent, buf)
	return &Subscription{C: ch, cancel: cancel}, ch
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Publisher is implemented by feeds that need events pushed to them; the
// postgres feed derives events from a trigger and has none.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

type Feed interface {
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
}

// Open builds the feed selected by cfg.Realtime.Driver. The returned
// Publisher is nil when the feed needs none.
func Open(cfg *config.Config, rmq *rabbitmq.Client, lg *logger.Logger) (Feed, Publisher, error) {
	switch cfg.Realtime.Driver {
	case "postgres":
		return NewPostgres(database.DSN(cfg.Database), lg), nil, nil
	case "rabbitmq":
		if rmq == nil {
			return nil, nil, fmt.Errorf("realtime driver rabbitmq needs a broker connection")
		}
		r := NewRabbit(rmq, cfg.Realtime.Channel, lg)
		return r, r, nil
	case "memory":
		b := NewChannelBroker(cfg.Realtime.Channel)
		return b, b, nil
	default:
		return nil, nil, fmt.Errorf("unknown realtime driver %q", cfg.Realtime.Driver)
	}
}

// decode parses a change payload. Undecodable payloads still signal a change
// on the orders table.
func decode(raw []byte, lg *logger.Logger) domain.ChangeEvent {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		lg.Warn("change_event_undecodable", err, map[string]any{"payload": string(raw)})
		return domain.ChangeEvent{Table: "orders"}
	}
	return ev
}
