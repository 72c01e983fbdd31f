// Package registry turns the device table into a push target set.
package registry

import (
	"context"
	"fmt"
	"strings"

	"table-orders/internal/domain"
)

type DeviceSource interface {
	ListDevices(ctx context.Context) ([]domain.Device, error)
}

type Registry struct {
	src DeviceSource
}

func New(src DeviceSource) *Registry { return &Registry{src: src} }

// ListTargets returns every known token exactly once, newest registration
// first. Any read failure yields ErrRegistryUnavailable and no targets.
func (r *Registry) ListTargets(ctx context.Context) ([]string, error) {
	devices, err := r.src.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistryUnavailable, err)
	}
	return Dedupe(devices), nil
}

// Dedupe collapses rows sharing a token and drops blank tokens, keeping the
// first occurrence's position.
func Dedupe(devices []domain.Device) []string {
	seen := make(map[string]struct{}, len(devices))
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		tok := strings.TrimSpace(d.FCMToken)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
