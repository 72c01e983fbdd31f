package service

import (
	"context"
	"sync"
	"time"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/tracker/feed"
)

// ResyncFunc rebuilds an observer's view from the store.
type ResyncFunc func(ctx context.Context) error

type OrderSource interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// Observer receives the complete order list after every resync.
type Observer interface {
	Replace(orders []domain.Order)
}

// FailureObserver is an Observer that also shows failed resyncs.
type FailureObserver interface {
	Observer
	ResyncFailed(err error)
}

// Pull is the standard resync: read the whole list, then hand it over. On a
// read error the observer keeps its previous view and, if it is a
// FailureObserver, is told about the failure.
func Pull(src OrderSource, obs Observer) ResyncFunc {
	return func(ctx context.Context) error {
		orders, err := src.ListOrders(ctx)
		if err != nil {
			if fo, ok := obs.(FailureObserver); ok && ctx.Err() == nil {
				fo.ResyncFailed(err)
			}
			return err
		}
		obs.Replace(orders)
		return nil
	}
}

// SyncClient keeps one observer in step with the change feed. Change events
// only mark the view dirty; a single worker re-reads the store, so resyncs
// for one observer never overlap and bursts collapse into one re-read.
type SyncClient struct {
	feed    feed.Feed
	channel string
	resync  ResyncFunc
	log     *logger.Logger

	RetryDelay time.Duration

	dirty     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	sub *feed.Subscription
}

func NewSyncClient(f feed.Feed, channel string, resync ResyncFunc, lg *logger.Logger) *SyncClient {
	if channel == "" {
		channel = domain.OrdersChannel
	}
	return &SyncClient{
		feed:       f,
		channel:    channel,
		resync:     resync,
		log:        lg,
		RetryDelay: 2 * time.Second,
		dirty:      make(chan struct{}, 1),
		closed:     make(chan struct{}),
	}
}

func (c *SyncClient) markDirty() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done or Close is called.
func (c *SyncClient) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.worker(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	c.markDirty()
	for attempt := 0; ; attempt++ {
		sub, err := c.feed.Subscribe(ctx, c.channel)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("feed_subscribe_failed", err, map[string]any{"channel": c.channel, "attempt": attempt})
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}
		if !c.setSub(sub) {
			sub.Close()
			return nil
		}
		if attempt > 0 {
			// events may have been missed while disconnected
			c.markDirty()
			c.log.Info("feed_resubscribed", map[string]any{"channel": c.channel})
		}

		for range sub.C {
			c.markDirty()
		}
		if !c.setSub(nil) || ctx.Err() != nil {
			return nil
		}
		c.log.Warn("feed_dropped", sub.Err(), map[string]any{"channel": c.channel})
		if !c.sleep(ctx) {
			return nil
		}
	}
}

func (c *SyncClient) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.dirty:
			start := time.Now()
			if err := c.resync(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Warn("resync_failed", err, nil)
				continue
			}
			c.log.Debug("resync_completed", map[string]any{"duration_ms": time.Since(start).Milliseconds()})
		}
	}
}

func (c *SyncClient) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.RetryDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// setSub records the live subscription; it refuses once the client is closed.
func (c *SyncClient) setSub(sub *feed.Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return false
	default:
	}
	c.sub = sub
	return true
}

// Close releases the subscription and stops Run. Safe to call more than once.
func (c *SyncClient) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.closed)
		sub := c.sub
		c.sub = nil
		c.mu.Unlock()
		if sub != nil {
			sub.Close()
		}
	})
}
