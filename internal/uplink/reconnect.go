package uplink

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnectGate spaces out Wi-Fi reconnection attempts. The wait after a
// failure doubles from the base up to the ceiling; a success resets it.
type reconnectGate struct {
	schedule *backoff.ExponentialBackOff
	base     time.Duration

	wait        time.Duration
	lastAttempt time.Duration
	attempted   bool
	failures    int
}

func newReconnectGate(base, ceiling time.Duration) *reconnectGate {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = ceiling
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return &reconnectGate{schedule: b, base: base, wait: base}
}

func (g *reconnectGate) canAttempt(now time.Duration) bool {
	if !g.attempted {
		return true
	}
	return now-g.lastAttempt >= g.wait
}

func (g *reconnectGate) record(now time.Duration, success bool) {
	g.attempted = true
	g.lastAttempt = now
	if success {
		g.schedule.Reset()
		g.wait = g.base
		g.failures = 0
		return
	}
	g.failures++
	g.wait = g.schedule.NextBackOff()
}
