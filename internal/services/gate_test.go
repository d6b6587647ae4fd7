package services

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives a RateGate deterministically: sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGate(clock *fakeClock) *RateGate {
	g := NewRateGate()
	g.now = clock.Now
	g.sleep = clock.Advance
	return g
}

func TestRateGateFirstCallImmediate(t *testing.T) {
	g := newTestGate(newFakeClock())
	require.Zero(t, g.Wait("search", 5*time.Second))
}

func TestRateGateSpacing(t *testing.T) {
	clock := newFakeClock()
	g := newTestGate(clock)
	minDelay := 2 * time.Second

	var stamps []time.Time
	for i := 0; i < 5; i++ {
		g.Wait("search", minDelay)
		stamps = append(stamps, g.LastStamp("search"))
	}
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), minDelay,
			"stamps %d and %d closer than minDelay", i-1, i)
	}
}

func TestRateGateStaggeredArrival(t *testing.T) {
	clock := newFakeClock()
	g := newTestGate(clock)
	minDelay := 5000 * time.Millisecond

	require.Zero(t, g.Wait("search", minDelay))

	clock.Advance(100 * time.Millisecond)
	require.Equal(t, 4900*time.Millisecond, g.Wait("search", minDelay))
}

func TestRateGateElapsedDelayProceedsImmediately(t *testing.T) {
	clock := newFakeClock()
	g := newTestGate(clock)

	g.Wait("fetch", 2*time.Second)
	clock.Advance(3 * time.Second)
	require.Zero(t, g.Wait("fetch", 2*time.Second))
}

func TestRateGateRouteClassesIndependent(t *testing.T) {
	clock := newFakeClock()
	g := newTestGate(clock)

	g.Wait("poe1:search", 5*time.Second)
	require.Zero(t, g.Wait("poe2:search", 5*time.Second),
		"a waiting route-class must not delay another")
}

func TestRateGateSimultaneousCallersQueue(t *testing.T) {
	// All callers observe the same arrival instant; the reservation must
	// hand out strictly increasing slots with no two callers sharing one.
	clock := newFakeClock()
	g := NewRateGate()
	g.now = clock.Now
	g.sleep = func(time.Duration) {}

	const callers = 10
	minDelay := time.Second

	var mu sync.Mutex
	var waits []time.Duration
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := g.Wait("search", minDelay)
			mu.Lock()
			waits = append(waits, w)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(waits, func(i, j int) bool { return waits[i] < waits[j] })
	for i, w := range waits {
		require.Equal(t, time.Duration(i)*minDelay, w,
			"caller %d should be delayed by %d slots", i, i)
	}
}
