package signup

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultPollInterval matches the payment screen's refresh cadence.
const DefaultPollInterval = 5 * time.Second

// Poller watches a registration's charge until it is paid or the watch is
// cancelled. It models the payment screen's confirmation loop as an explicit
// cancellable task: start, tick, stop-on-success or stop-on-cancel. No tick
// outlives the context.
type Poller struct {
	rec      *Reconciler
	interval time.Duration
}

// NewPoller creates a poller with the given tick interval; zero or negative
// falls back to the default.
func NewPoller(rec *Reconciler, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{rec: rec, interval: interval}
}

// Watch polls the registration's payment status until confirmation or
// cancellation. It emits exactly one value before closing the channel:
// true when the charge was confirmed, false when the context was cancelled
// first. Tick errors are swallowed and retried on the next tick; a network
// blip must not surface to the user mid-payment.
func (p *Poller) Watch(ctx context.Context, publicID string) <-chan bool {
	out := make(chan bool, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			paid, err := p.rec.CheckStatus(ctx, publicID)
			if err != nil {
				log.Warnf("[Signup] poll tick for registration %s failed: %v", publicID, err)
			}
			if paid {
				out <- true
				return
			}

			select {
			case <-ctx.Done():
				out <- false
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
