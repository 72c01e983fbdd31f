package service

import (
	"context"
	"fmt"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/dispatcher"
	"table-orders/internal/microservices/notificator/payload"
)

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

type TargetLister interface {
	ListTargets(ctx context.Context) ([]string, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p payload.Payload, targets []string) (dispatcher.Summary, error)
}

// Readiness reports whether the push transport is configured.
type Readiness interface {
	Ready() error
}

type NotificatorServiceInterface interface {
	DispatchOrder(ctx context.Context, orderID string) (dispatcher.Summary, error)
}

type NotificatorService struct {
	orders     OrderReader
	registry   TargetLister
	builder    *payload.Builder
	dispatcher Dispatcher
	transport  Readiness
	log        *logger.Logger
}

func NewNotificatorService(orders OrderReader, registry TargetLister, builder *payload.Builder,
	d Dispatcher, transport Readiness, lg *logger.Logger) *NotificatorService {
	return &NotificatorService{
		orders:     orders,
		registry:   registry,
		builder:    builder,
		dispatcher: d,
		transport:  transport,
		log:        lg,
	}
}

// DispatchOrder pushes the stored order to every registered device. The
// transport configuration is checked before anything is read.
func (ns *NotificatorService) DispatchOrder(ctx context.Context, orderID string) (dispatcher.Summary, error) {
	if err := ns.transport.Ready(); err != nil {
		ns.log.Error("push_not_configured", err, nil)
		return dispatcher.Summary{}, err
	}

	order, err := ns.orders.GetOrder(ctx, orderID)
	if err != nil {
		return dispatcher.Summary{}, fmt.Errorf("load order %s: %w", orderID, err)
	}

	targets, err := ns.registry.ListTargets(ctx)
	if err != nil {
		ns.log.Error("registry_read_failed", err, map[string]any{"order_id": orderID})
		return dispatcher.Summary{}, err
	}
	if len(targets) == 0 {
		ns.log.Warn("no_targets", domain.ErrNoTargets, map[string]any{"order_id": orderID})
		return dispatcher.Summary{}, domain.ErrNoTargets
	}

	return ns.dispatcher.Dispatch(ctx, ns.builder.Build(order), targets)
}
