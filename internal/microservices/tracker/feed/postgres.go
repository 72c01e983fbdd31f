package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
)

// Postgres listens on the NOTIFY channel filled by the orders trigger. The
// trigger always notifies domain.OrdersChannel. Each subscription holds its
// own connection.
type Postgres struct {
	dsn string
	log *logger.Logger
}

func NewPostgres(dsn string, lg *logger.Logger) *Postgres {
	return &Postgres{dsn: dsn, log: lg}
}

func (p *Postgres) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if err := checkChannel(domain.OrdersChannel, channel); err != nil {
		return nil, err
	}
	if channel == "" {
		channel = domain.OrdersChannel
	}
	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	conn, err := pgx.Connect(connectCtx, p.dsn)
	cancelConnect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	sub, out := newSubscription(16, cancel)

	go func() {
		defer close(out)
		defer conn.Close(context.Background())
		for {
			n, err := conn.WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					sub.fail(err)
				}
				return
			}
			select {
			case out <- decode([]byte(n.Payload), p.log):
			case <-listenCtx.Done():
				return
			}
		}
	}()

	p.log.Debug("feed_subscribed", map[string]any{"driver": "postgres", "channel": channel})
	return sub, nil
}
