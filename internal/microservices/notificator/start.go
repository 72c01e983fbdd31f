package notificator

import (
	"context"

	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/microservices/notificator/dispatcher"
	"table-orders/internal/microservices/notificator/payload"
	"table-orders/internal/microservices/notificator/push"
	"table-orders/internal/microservices/notificator/registry"
	"table-orders/internal/microservices/notificator/service"
)

// Build creates the push transport once and wires the notificator around
// it. Missing credentials are logged here and reported on every dispatch.
// Dispatches have no deadline unless push.send_timeout is set or the caller
// passes one in ctx.
func Build(ctx context.Context, cfg *config.Config, orders service.OrderReader,
	devices registry.DeviceSource, lg *logger.Logger) (*service.Service, error) {

	transport, err := push.New(ctx, cfg.Push, lg)
	if err != nil {
		return nil, err
	}
	if fcm, ok := transport.(*push.FCM); ok {
		if err := fcm.Init(ctx); err != nil {
			lg.Warn("push_init_failed", err, map[string]any{"driver": cfg.Push.Driver})
		}
	} else if err := transport.Ready(); err != nil {
		lg.Warn("push_init_failed", err, map[string]any{"driver": cfg.Push.Driver})
	}
	transport = push.WithRateLimit(transport, cfg.Push.RateLimit, cfg.Push.RateBurst)
	transport = push.WithRetry(transport, cfg.Push.Retry.Attempts, cfg.Push.Retry.BaseDelay)

	return service.New(
		orders,
		devices,
		transport,
		dispatcher.New(transport, lg, cfg.Push.SendTimeout),
		payload.Options{
			Sound:          cfg.Push.Sound,
			AndroidChannel: cfg.Push.AndroidChannel,
			APNSSoundExt:   cfg.Push.APNSSoundExt,
		},
		lg,
	), nil
}

// Start consumes notifications.q until ctx is done.
func Start(ctx context.Context, svc *service.Service, rmq *rabbitmq.Client, prefetch int, lg *logger.Logger) error {
	if err := rmq.DeclareTopology(); err != nil {
		return err
	}
	return service.NewConsumer(svc.NotificatorService, rmq, prefetch, lg).Run(ctx)
}

// Announcer picks how new orders reach the notificator.
func Announcer(cfg *config.Config, svc *service.Service, rmq *rabbitmq.Client) service.Announcer {
	if cfg.Notify.Driver == "rabbitmq" && rmq != nil {
		return service.NewRabbitAnnouncer(rmq)
	}
	return service.NewLocalAnnouncer(svc.NotificatorService)
}
