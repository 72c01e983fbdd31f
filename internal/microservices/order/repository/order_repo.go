package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"table-orders/internal/common/logger"
	"table-orders/internal/connections/database"
	"table-orders/internal/domain"
)

type OrderRepositoryInterface interface {
	AddOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

type OrderRepository struct {
	db  *database.DB
	log *logger.Logger
}

func NewOrderRepository(db *database.DB, lg *logger.Logger) *OrderRepository {
	return &OrderRepository{db: db, log: lg}
}

func (or *OrderRepository) AddOrder(ctx context.Context, order domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	_, err = or.db.ExecContext(ctx, or.db.Rebind(`
		INSERT INTO orders (id, table_name, status, items, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), order.ID, order.TableName, string(order.Status), string(items), order.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (or *OrderRepository) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	row := or.db.QueryRowContext(ctx, or.db.Rebind(`
		SELECT id, table_name, status, items, created_at FROM orders WHERE id = ?
	`), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// ListOrders returns every well-formed order, newest first. Rows that do not
// match the item schema are skipped and logged.
func (or *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := or.db.QueryContext(ctx, `
		SELECT id, table_name, status, items, created_at FROM orders
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if errors.Is(err, domain.ErrMalformedOrder) {
			or.log.Warn("order_quarantined", err, map[string]any{"order_id": o.ID})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return out, nil
}

func (or *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := or.db.ExecContext(ctx, or.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder validates the items column against itemsSchema, then decodes the row. On
// ErrMalformedOrder the returned order still carries the id.
func scanOrder(s rowScanner) (domain.Order, error) {
	var (
		o         domain.Order
		status    string
		itemsRaw  []byte
		createdAt time.Time
	)
	if err := s.Scan(&o.ID, &o.TableName, &status, &itemsRaw, &createdAt); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = createdAt.UTC()

	if err := validateItems(itemsRaw); err != nil {
		return domain.Order{ID: o.ID}, fmt.Errorf("%w: order %s: %v", domain.ErrMalformedOrder, o.ID, err)
	}
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return domain.Order{ID: o.ID}, fmt.Errorf("%w: order %s items: %v", domain.ErrMalformedOrder, o.ID, err)
	}
	if err := domain.ValidateStored(o); err != nil {
		return domain.Order{ID: o.ID}, err
	}
	return o, nil
}
