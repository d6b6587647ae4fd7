package services

import (
	"sync"
	"time"
)

// RateGate spaces outbound calls per route-class. Two calls gated under the
// same route-class never dispatch less than minDelay apart; route-classes do
// not block each other. The gate never rejects, it only waits.
type RateGate struct {
	mu   sync.Mutex
	last map[string]time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewRateGate() *RateGate {
	return &RateGate{
		last:  make(map[string]time.Time),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Wait blocks the calling goroutine until the route-class's minimum spacing
// has elapsed, then stamps the dispatch time. The stamp is written whether or
// not the upstream call that follows succeeds, so a failing upstream still
// consumes a slot. Returns how long the caller was held.
//
// The read-stamp/write-stamp sequence is a single critical section: the slot
// is reserved under the lock and the sleep happens outside it, so concurrent
// callers queue up at minDelay intervals instead of racing past a stale
// timestamp. Waits are not cancellable; only the upstream HTTP call itself
// carries a timeout.
func (g *RateGate) Wait(routeClass string, minDelay time.Duration) time.Duration {
	g.mu.Lock()
	now := g.now()
	dispatch := now
	if last, ok := g.last[routeClass]; ok {
		if next := last.Add(minDelay); next.After(now) {
			dispatch = next
		}
	}
	g.last[routeClass] = dispatch
	g.mu.Unlock()

	wait := dispatch.Sub(now)
	if wait > 0 {
		g.sleep(wait)
	}
	return wait
}

// LastStamp reports the most recent reserved dispatch time for a route-class.
// Zero time means the route-class has never been gated.
func (g *RateGate) LastStamp(routeClass string) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last[routeClass]
}
