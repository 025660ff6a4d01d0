// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls once immediately, then on every tick and every refresh request,
// emitting each PollResult on out. One goroutine per unit. No overlap. No retries.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	emit := func() bool {
		res := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return false
		}
		select {
		case out <- res:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !emit() {
				return
			}
		case <-p.source.Refreshes():
			if !emit() {
				return
			}
			// a refresh counts as this period's poll
			ticker.Reset(p.cfg.Interval)
		}
	}
}
