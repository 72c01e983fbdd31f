package dispatcher

import (
	"context"
	"time"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/payload"
	"table-orders/internal/microservices/notificator/push"
)

// Outcome is the result of one send.
type Outcome struct {
	Token     string `json:"token"`
	MessageID string `json:"message_id,omitempty"`
	Err       error  `json:"-"`
}

func (o Outcome) OK() bool { return o.Err == nil }

type Summary struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"-"`
}

type Dispatcher struct {
	sender  push.Sender
	log     *logger.Logger
	timeout time.Duration // per-dispatch ceiling; 0 means the caller's ctx only
}

func New(sender push.Sender, lg *logger.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, log: lg, timeout: timeout}
}

// Dispatch sends p once to every distinct target concurrently and waits for
// all of them or for ctx. Repeated tokens are collapsed, so Total counts
// devices, not list entries. Tokens still in flight when ctx ends are
// counted as failed.
func (d *Dispatcher) Dispatch(ctx context.Context, p payload.Payload, targets []string) (Summary, error) {
	targets = unique(targets)
	if len(targets) == 0 {
		return Summary{}, domain.ErrNoTargets
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// buffered so late senders never block after we stop collecting
	results := make(chan Outcome, len(targets))
	for _, token := range targets {
		go func(token string) {
			id, err := d.sender.Send(ctx, p.ForToken(token))
			results <- Outcome{Token: token, MessageID: id, Err: err}
		}(token)
	}

	pending := make(map[string]bool, len(targets))
	for _, token := range targets {
		pending[token] = true
	}

	sum := Summary{Total: len(targets), Outcomes: make([]Outcome, 0, len(targets))}
	record := func(o Outcome) {
		sum.Outcomes = append(sum.Outcomes, o)
		if o.OK() {
			sum.Successful++
			return
		}
		sum.Failed++
		d.log.Warn("push_send_failed", o.Err, map[string]any{
			"token":    o.Token,
			"order_id": p.Data["orderId"],
		})
	}

	for received := 0; received < len(targets); received++ {
		select {
		case o := <-results:
			delete(pending, o.Token)
			record(o)
		case <-ctx.Done():
			for token := range pending {
				record(Outcome{Token: token, Err: ctx.Err()})
			}
			d.logSummary(p, sum)
			return sum, nil
		}
	}

	d.logSummary(p, sum)
	return sum, nil
}

// unique drops repeated and empty tokens, keeping first-seen order.
func unique(targets []string) []string {
	seen := make(map[string]struct{}, len(targets))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (d *Dispatcher) logSummary(p payload.Payload, sum Summary) {
	d.log.Info("push_dispatched", map[string]any{
		"order_id":   p.Data["orderId"],
		"total":      sum.Total,
		"successful": sum.Successful,
		"failed":     sum.Failed,
	})
}
