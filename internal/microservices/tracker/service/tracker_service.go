package service

import (
	"fmt"
	"strings"
	"sync"

	"table-orders/internal/domain"
	"table-orders/internal/microservices/tracker/models"
)

// StaffView holds the latest full order list for a fulfillment screen.
type StaffView struct {
	mu       sync.RWMutex
	orders   []domain.Order
	version  int
	onChange func(models.Frame)
}

// NewStaffView returns an empty view; onChange, when set, is called with
// every new frame outside the view's lock.
func NewStaffView(onChange func(models.Frame)) *StaffView {
	return &StaffView{onChange: onChange}
}

func (v *StaffView) Replace(orders []domain.Order) {
	cp := make([]domain.Order, len(orders))
	for i, o := range orders {
		cp[i] = o.Clone()
	}

	v.mu.Lock()
	v.orders = cp
	v.version++
	frame := models.Frame{Type: models.FrameOrders, Version: v.version, Orders: cp}
	v.mu.Unlock()

	if v.onChange != nil {
		v.onChange(frame)
	}
}

// ResyncFailed reports err to the screen. The last good order list stays in
// the frame and in the view.
func (v *StaffView) ResyncFailed(err error) {
	v.mu.RLock()
	frame := models.Frame{Type: models.FrameError, Version: v.version, Orders: v.orders, Error: err.Error()}
	v.mu.RUnlock()

	if v.onChange != nil {
		v.onChange(frame)
	}
}

func (v *StaffView) Snapshot() models.Frame {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return models.Frame{Type: models.FrameOrders, Version: v.version, Orders: v.orders}
}

// Lines renders the frame as the terminal staff screen prints it.
func Lines(f models.Frame) []string {
	out := make([]string, 0, len(f.Orders))
	for _, o := range f.Orders {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		}
		out = append(out, fmt.Sprintf("%s / %s / %s", o.TableName, o.Status, strings.Join(items, ", ")))
	}
	return out
}
