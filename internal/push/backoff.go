package push

import (
	"math/rand/v2"
	"time"
)

// Reconnect backoff defaults.
const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
	DefaultJitter    = 0.2
)

// calculateBackoff returns base * 2^(attempt-1) capped at maxDelay. Attempts below
// one use base.
func calculateBackoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if maxDelay < base {
		maxDelay = base
	}
	if attempt <= 1 {
		return base
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return delay
}

// nextAttempt returns the backoff attempt that follows a connection cycle.
// Only a connection that stayed open for at least stableAfter starts the
// sequence over; one that is accepted and then dropped keeps escalating.
func nextAttempt(attempt int, uptime, stableAfter time.Duration) int {
	if uptime > 0 && uptime >= stableAfter {
		return 1
	}
	return attempt + 1
}

// withJitter spreads d by +/- fraction using rnd in [0,1). The result never
// exceeds maxDelay or drops below zero.
func withJitter(d time.Duration, fraction float64, maxDelay time.Duration, rnd func() float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	if rnd == nil {
		rnd = rand.Float64
	}
	jittered := d + time.Duration(float64(d)*fraction*(rnd()*2-1))
	if maxDelay > 0 && jittered > maxDelay {
		jittered = maxDelay
	}
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}
