package tracker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/microservices/tracker/feed"
	"table-orders/internal/microservices/tracker/models"
	"table-orders/internal/microservices/tracker/service"
)

// Build opens the configured change feed. The Publisher is nil when events
// come from the database itself.
func Build(cfg *config.Config, orders service.OrderSource, rmq *rabbitmq.Client, lg *logger.Logger) (*service.Service, feed.Publisher, error) {
	f, pub, err := feed.Open(cfg, rmq, lg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewService(orders, f, cfg.Realtime.Channel, cfg.Realtime.RetryDelay, lg), pub, nil
}

// Watch prints the staff screen to w after every resync until ctx is done.
func Watch(ctx context.Context, svc *service.Service, w io.Writer) error {
	view := service.NewStaffView(func(f models.Frame) {
		if f.Type == models.FrameError {
			fmt.Fprintf(w, "--- %s resync failed: %s ---\n", time.Now().Format("15:04:05"), f.Error)
			return
		}
		fmt.Fprintf(w, "--- %s (%d orders) ---\n", time.Now().Format("15:04:05"), len(f.Orders))
		if len(f.Orders) > 0 {
			fmt.Fprintln(w, strings.Join(service.Lines(f), "\n"))
		}
	})
	return svc.Watch(ctx, view)
}
