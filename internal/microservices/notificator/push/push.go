// Package push delivers addressed payloads to a device transport.
package push

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"table-orders/internal/common/logger"
	"table-orders/internal/config"
	"table-orders/internal/microservices/notificator/payload"
)

// Sender delivers one message and returns the transport's message id.
type Sender interface {
	Send(ctx context.Context, msg payload.Message) (string, error)
}

// Transport is a Sender whose configuration can be checked before any
// message is built.
type Transport interface {
	Sender
	Ready() error
}

// New builds the transport selected by cfg.Driver. Credentials are not
// validated here; callers check Ready before dispatching.
func New(ctx context.Context, cfg config.PushConfig, lg *logger.Logger) (Transport, error) {
	switch cfg.Driver {
	case "fcm", "":
		return NewFCM(FCMCredentials{
			ProjectID:   cfg.ProjectID,
			ClientEmail: cfg.ClientEmail,
			PrivateKey:  cfg.PrivateKey,
		}), nil
	case "sns":
		return NewSNS(ctx, cfg.Region, cfg.PlatformARN)
	case "log":
		return NewLogSender(lg), nil
	default:
		return nil, fmt.Errorf("unknown push driver %q", cfg.Driver)
	}
}

// Retrying retries failed sends with jittered exponential backoff. Attempts
// counts retries after the first send; 0 sends exactly once.
type Retrying struct {
	Transport
	Attempts  int
	BaseDelay time.Duration
}

func WithRetry(t Transport, attempts int, base time.Duration) Transport {
	if attempts <= 0 {
		return t
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &Retrying{Transport: t, Attempts: attempts, BaseDelay: base}
}

func (r *Retrying) Send(ctx context.Context, msg payload.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.Attempts; attempt++ {
		if attempt > 0 {
			delay := r.BaseDelay << (attempt - 1)
			delay = delay/2 + rand.N(delay/2+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
			}
		}
		id, err := r.Transport.Send(ctx, msg)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// Limited caps the send rate across all callers, for transports with a
// per-project quota.
type Limited struct {
	Transport
	lim *rate.Limiter
}

// WithRateLimit returns t unchanged when perSecond <= 0.
func WithRateLimit(t Transport, perSecond float64, burst int) Transport {
	if perSecond <= 0 {
		return t
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{Transport: t, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) Send(ctx context.Context, msg payload.Message) (string, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.Transport.Send(ctx, msg)
}

// LogSender writes messages to the log instead of a device; used for local
// runs without push credentials.
type LogSender struct {
	log *logger.Logger
	seq atomic.Int64
}

func NewLogSender(lg *logger.Logger) *LogSender { return &LogSender{log: lg} }

func (s *LogSender) Ready() error { return nil }

func (s *LogSender) Send(_ context.Context, msg payload.Message) (string, error) {
	s.log.Info("push_logged", map[string]any{
		"token": msg.Token,
		"title": msg.Notification.Title,
		"body":  msg.Notification.Body,
		"data":  msg.Data,
	})
	return fmt.Sprintf("log-%d", s.seq.Add(1)), nil
}
