package order

import (
	"context"

	"table-orders/internal/common/httpx"
	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/connections/database"
	"table-orders/internal/connections/rabbitmq"
	"table-orders/internal/microservices/notificator"
	nhandlers "table-orders/internal/microservices/notificator/handlers"
	"table-orders/internal/microservices/order/handlers"
	"table-orders/internal/microservices/order/repository"
	"table-orders/internal/microservices/order/service"
	"table-orders/internal/microservices/tracker"
	thandler "table-orders/internal/microservices/tracker/handler"
)

// Run serves the order API, the dispatch trigger and the staff websocket
// until ctx is done. rmq may be nil when no driver needs the broker.
func Run(ctx context.Context, cfg *config.Config, db *database.DB, rmq *rabbitmq.Client, lg *logger.Logger) error {
	repo := repository.New(db, lg.Named("order-repository"))

	notif, err := notificator.Build(ctx, cfg, repo.OrderRepo, repo.DeviceRepo, lg.Named("notificator"))
	if err != nil {
		return err
	}
	track, changes, err := tracker.Build(cfg, repo.OrderRepo, rmq, lg.Named("tracker"))
	if err != nil {
		return err
	}

	svc := service.New(repo, notificator.Announcer(cfg, notif, rmq), changes, cfg.Policy(), lg)
	defer svc.OrderService.Wait()

	staff := thandler.New(track, lg.Named("tracker"))
	defer staff.Hub.CloseAll()

	r := httpx.NewRouter(lg)
	handlers.Routes(r, handlers.New(svc, lg), cfg.HTTP.MaxConcurrency)
	nhandlers.Routes(r, nhandlers.NewNotificationHandler(notif.NotificatorService, lg.Named("notificator")))
	thandler.Routes(r, staff)

	lg.Info("service_started", map[string]any{
		"port":            cfg.HTTP.Port,
		"max_concurrent":  cfg.HTTP.MaxConcurrency,
		"notify_driver":   cfg.Notify.Driver,
		"realtime_driver": cfg.Realtime.Driver,
		"push_driver":     cfg.Push.Driver,
	})
	return httpx.New(cfg.HTTP.Port, r).Run(ctx)
}
