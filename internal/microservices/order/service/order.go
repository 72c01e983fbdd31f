package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/order/repository"
)

// Announcer starts the device fan-out for a freshly persisted order.
type Announcer interface {
	Announce(ctx context.Context, order domain.Order) error
}

// ChangePublisher forwards change events to feeds that do not derive them
// from the database.
type ChangePublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

type OrderServiceInterface interface {
	SubmitOrder(ctx context.Context, tableName string, items []domain.OrderItem) (domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type OrderService struct {
	db        repository.OrderRepositoryInterface
	announcer Announcer
	changes   ChangePublisher
	policy    domain.TransitionPolicy
	log       *logger.Logger

	AnnounceTimeout time.Duration
	now             func() time.Time
	wg              sync.WaitGroup
}

func NewOrderService(db repository.OrderRepositoryInterface, announcer Announcer, changes ChangePublisher,
	policy domain.TransitionPolicy, lg *logger.Logger) *OrderService {
	return &OrderService{
		db:              db,
		announcer:       announcer,
		changes:         changes,
		policy:          policy,
		log:             lg,
		AnnounceTimeout: 30 * time.Second,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) SubmitOrder(ctx context.Context, tableName string, items []domain.OrderItem) (domain.Order, error) {
	// 1. Cart validation, before any I/O
	cart, err := domain.NormalizeCart(items)
	if err != nil {
		return domain.Order{}, err
	}

	// 2. Identity
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to generate order id: %w", err)
	}
	order := domain.Order{
		ID:        id.String(),
		TableName: domain.NormalizeTableName(tableName),
		Status:    domain.StatusUnprovided,
		Items:     cart,
		CreatedAt: s.now().Truncate(time.Microsecond),
	}

	// 3. Persist
	if err := s.db.AddOrder(ctx, order); err != nil {
		return domain.Order{}, domain.Persistence("add_order", err)
	}
	s.log.Info("order_created", map[string]any{
		"order_id":   order.ID,
		"table_name": order.TableName,
		"items":      len(order.Items),
		"total":      order.Total(),
	})

	// 4. Fan-out and change event, neither affects the result
	s.publishChange(ctx, domain.ChangeInsert, order.ID)
	s.announce(ctx, order.Clone())

	return order, nil
}

func (s *OrderService) announce(ctx context.Context, order domain.Order) {
	if s.announcer == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.AnnounceTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if err := s.announcer.Announce(actx, order); err != nil {
			s.log.Warn("order_announce_failed", err, map[string]any{"order_id": order.ID})
		}
	}()
}

func (s *OrderService) publishChange(ctx context.Context, typ domain.ChangeType, id string) {
	if s.changes == nil {
		return
	}
	ev := domain.ChangeEvent{Table: "orders", Type: typ, RecordID: id, OccurredAt: s.now()}
	if err := s.changes.Publish(ctx, ev); err != nil {
		s.log.Warn("change_publish_failed", err, map[string]any{"order_id": id, "type": string(typ)})
	}
}

// UpdateStatus applies the transition to the stored order and returns the
// order as re-read after the write.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (domain.Order, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	updated, err := domain.ApplyStatus(current, next, s.policy)
	if err != nil {
		return domain.Order{}, err
	}
	if updated.Status == current.Status {
		return current, nil
	}

	if err := s.db.UpdateStatus(ctx, id, updated.Status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, domain.Persistence("update_status", err)
	}

	stored, err := s.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order_status_updated", map[string]any{
		"order_id":   id,
		"old_status": string(current.Status),
		"new_status": string(stored.Status),
	})
	s.publishChange(ctx, domain.ChangeUpdate, id)
	return stored, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.db.GetOrder(ctx, id)
	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrMalformedOrder):
		return domain.Order{}, err
	default:
		return domain.Order{}, domain.Persistence("get_order", err)
	}
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.db.ListOrders(ctx)
	if err != nil {
		return nil, domain.Persistence("list_orders", err)
	}
	return orders, nil
}

// Wait blocks until every announcement started so far has returned.
func (s *OrderService) Wait() { s.wg.Wait() }
