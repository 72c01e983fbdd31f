package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

type OrderStatus string

const (
	StatusUnprovided OrderStatus = "unprovided"
	StatusProvided   OrderStatus = "provided"
	StatusPaid       OrderStatus = "paid"
)

// Order is the shared record between the ordering and fulfillment surfaces.
type Order struct {
	ID        string      `json:"id"`
	TableName string      `json:"table_name"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is a point-in-time copy of a menu entry.
type OrderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

type Device struct {
	FCMToken  string    `json:"fcm_token"`
	CreatedAt time.Time `json:"created_at"`
}

// Total returns the sum of price*quantity over all items.
func (o Order) Total() int {
	total := 0
	for _, it := range o.Items {
		total += it.Price * it.Quantity
	}
	return total
}

// Clone returns a copy that shares no slice memory with o.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = append([]OrderItem(nil), o.Items...)
	}
	return c
}

// Validate checks a single stored item.
func (it OrderItem) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return fmt.Errorf("%w: missing menu id", ErrInvalidItem)
	}
	if it.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d for %q", ErrInvalidItem, it.Quantity, it.ID)
	}
	if it.Price < 0 {
		return fmt.Errorf("%w: negative price for %q", ErrInvalidItem, it.ID)
	}
	return nil
}

// NormalizeCart prepares a submitted cart for persistence: names are NFC
// normalized, quantity 0 entries are dropped and repeated menu ids are merged
// (first name and price win). The result is never persisted when empty.
func NormalizeCart(items []OrderItem) ([]OrderItem, error) {
	out := make([]OrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		it.Name = norm.NFC.String(strings.TrimSpace(it.Name))
		if it.Quantity == 0 {
			continue
		}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if i, ok := index[it.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCart
	}
	return out, nil
}

// NormalizeTableName trims and NFC normalizes a table label.
func NormalizeTableName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateStored checks an order read back from the store.
func ValidateStored(o Order) error {
	if o.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedOrder)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order %s has no items", ErrMalformedOrder, o.ID)
	}
	for _, it := range o.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("%w: order %s: %v", ErrMalformedOrder, o.ID, err)
		}
	}
	if _, err := ParseStatus(string(o.Status)); err != nil {
		return fmt.Errorf("%w: order %s: %v", ErrMalformedOrder, o.ID, err)
	}
	return nil
}
