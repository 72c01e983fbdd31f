package service

import (
	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/order/repository"
)

type Service struct {
	OrderService  *OrderService
	DeviceService *DeviceService
}

func New(db *repository.Repository, announcer Announcer, changes ChangePublisher,
	policy domain.TransitionPolicy, lg *logger.Logger) *Service {
	return &Service{
		OrderService:  NewOrderService(db.OrderRepo, announcer, changes, policy, lg),
		DeviceService: NewDeviceService(db.DeviceRepo, lg),
	}
}
