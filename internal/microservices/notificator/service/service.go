package service

import (
	"table-orders/internal/common/logger"
	"table-orders/internal/microservices/notificator/dispatcher"
	"table-orders/internal/microservices/notificator/payload"
	"table-orders/internal/microservices/notificator/push"
	"table-orders/internal/microservices/notificator/registry"
)

type Service struct {
	NotificatorService *NotificatorService
}

func New(orders OrderReader, devices registry.DeviceSource, transport push.Transport,
	d *dispatcher.Dispatcher, opts payload.Options, lg *logger.Logger) *Service {
	return &Service{NotificatorService: NewNotificatorService(
		orders,
		registry.New(devices),
		payload.NewBuilder(opts),
		d,
		transport,
		lg,
	)}
}
