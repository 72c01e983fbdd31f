package repository

import (
	"table-orders/internal/common/logger"
	"table-orders/internal/connections/database"
)

type Repository struct {
	OrderRepo  *OrderRepository
	DeviceRepo *DeviceRepository
}

func New(db *database.DB, lg *logger.Logger) *Repository {
	return &Repository{
		OrderRepo:  NewOrderRepository(db, lg),
		DeviceRepo: NewDeviceRepository(db),
	}
}
