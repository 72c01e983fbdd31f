package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidItem         = errors.New("invalid order item")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrOrderNotFound       = errors.New("order not found")
	ErrMalformedOrder      = errors.New("malformed order record")
	ErrNoTargets           = errors.New("No POS devices found")
	ErrRegistryUnavailable = errors.New("device registry unavailable")
	ErrMissingCredentials  = errors.New("push credentials missing")
)

// PersistenceError reports a failed store read or write together with its cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
