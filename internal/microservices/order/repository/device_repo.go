package repository

import (
	"context"
	"fmt"
	"strings"

	"table-orders/internal/connections/database"
	"table-orders/internal/domain"
)

type DeviceRepositoryInterface interface {
	ListDevices(ctx context.Context) ([]domain.Device, error)
	RegisterDevice(ctx context.Context, token string) error
}

type DeviceRepository struct {
	db *database.DB
}

func NewDeviceRepository(db *database.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// ListDevices returns raw registry rows, newest first. Duplicated tokens are
// returned as stored.
func (r *DeviceRepository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fcm_token, created_at FROM pos_devices
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch FCM tokens: %w", err)
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.FCMToken, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return out, nil
}

// RegisterDevice inserts token unless a row with it already exists;
// created_at is filled by the column default.
func (r *DeviceRepository) RegisterDevice(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("fcm_token is required")
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO pos_devices (fcm_token)
		SELECT ?
		WHERE NOT EXISTS (SELECT 1 FROM pos_devices WHERE fcm_token = ?)
	`), token, token)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}
