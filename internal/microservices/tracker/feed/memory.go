package feed

import (
	"context"
	"errors"
	"sync"

	"table-orders/internal/domain"
)

// ErrDropped ends subscriptions cut by Broker.Drop.
var ErrDropped = errors.New("subscription dropped")

// Broker is an in-process feed for single-process deployments and tests. It
// serves exactly one named channel.
type Broker struct {
	channel string

	mu   sync.Mutex
	next int
	subs map[int]*memSub
}

type memSub struct {
	sub  *Subscription
	ch   chan domain.ChangeEvent
	done chan struct{}
}

// NewBroker returns a broker on the default orders channel.
func NewBroker() *Broker {
	return NewChannelBroker(domain.OrdersChannel)
}

func NewChannelBroker(channel string) *Broker {
	if channel == "" {
		channel = domain.OrdersChannel
	}
	return &Broker{channel: channel, subs: make(map[int]*memSub)}
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if err := checkChannel(b.channel, channel); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ms := &memSub{done: make(chan struct{})}
	ms.sub, ms.ch = newSubscription(16, func() { b.remove(id, nil) })
	b.subs[id] = ms

	go func() {
		select {
		case <-ctx.Done():
			b.remove(id, nil)
		case <-ms.done:
		}
	}()
	return ms.sub, nil
}

func (b *Broker) remove(id int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ms, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	if err != nil {
		ms.sub.fail(err)
	}
	close(ms.done)
	close(ms.ch)
}

// Publish delivers ev to every subscriber. A full subscriber buffer drops
// the event; one pending event already forces a full re-read.
func (b *Broker) Publish(_ context.Context, ev domain.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ms := range b.subs {
		select {
		case ms.ch <- ev:
		default:
		}
	}
	return nil
}

// Drop ends every live subscription with ErrDropped, as a lost connection would.
func (b *Broker) Drop() {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		b.remove(id, ErrDropped)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
