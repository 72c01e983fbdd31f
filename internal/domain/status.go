package domain

import (
	"fmt"
	"strings"
)

// TransitionPolicy decides which status moves ApplyStatus accepts.
type TransitionPolicy string

const (
	// PolicyLenient accepts any known status from any other.
	PolicyLenient TransitionPolicy = "lenient"
	// PolicyForwardOnly rejects moves backwards in unprovided -> provided -> paid.
	PolicyForwardOnly TransitionPolicy = "forward_only"
)

var statusRank = map[OrderStatus]int{
	StatusUnprovided: 0,
	StatusProvided:   1,
	StatusPaid:       2,
}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func ParsePolicy(s string) (TransitionPolicy, error) {
	switch TransitionPolicy(strings.TrimSpace(s)) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyForwardOnly:
		return PolicyForwardOnly, nil
	default:
		return "", fmt.Errorf("unknown transition policy %q", s)
	}
}

// ApplyStatus returns order with status set to next. Applying the current
// status returns an equal order.
func ApplyStatus(order Order, next OrderStatus, policy TransitionPolicy) (Order, error) {
	nextRank, ok := statusRank[next]
	if !ok {
		return order, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if order.Status == next {
		return order, nil
	}
	if policy == PolicyForwardOnly {
		if cur, known := statusRank[order.Status]; known && nextRank < cur {
			return order, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
		}
	}
	out := order.Clone()
	out.Status = next
	return out, nil
}
