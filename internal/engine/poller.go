package engine

import (
	"context"
	"time"
)

// DefaultPollInterval is the fallback refresh cadence.
const DefaultPollInterval = 5 * time.Second

// Poller calls a function once immediately and then at a fixed cadence,
// regardless of push channel state.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPoller launches a background goroutine that calls fn right away and
// then every interval until ctx is cancelled or Stop is called. It returns
// immediately.
func StartPoller(ctx context.Context, interval time.Duration, fn func()) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if ctx.Err() != nil {
				return
			}
			fn()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return p
}

// Stop cancels the timer and waits for the goroutine to exit. fn is never
// called after Stop returns.
func (p *Poller) Stop() {
	if p == nil {
		return
	}
	p.cancel()
	<-p.done
}
