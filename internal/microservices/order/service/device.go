package service

import (
	"context"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/order/repository"
)

type DeviceServiceInterface interface {
	RegisterDevice(ctx context.Context, token string) error
}

type DeviceService struct {
	db  repository.DeviceRepositoryInterface
	log *logger.Logger
}

func NewDeviceService(db repository.DeviceRepositoryInterface, lg *logger.Logger) *DeviceService {
	return &DeviceService{db: db, log: lg}
}

func (ds *DeviceService) RegisterDevice(ctx context.Context, token string) error {
	if err := ds.db.RegisterDevice(ctx, token); err != nil {
		return domain.Persistence("register_device", err)
	}
	ds.log.Info("device_registered", map[string]any{"token_suffix": tail(token, 6)})
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
