package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestFetcher(clock *fakeClock) (*CachedFetcher, *RateGate, *TTLCache) {
	gate := NewRateGate()
	gate.now = clock.Now
	gate.sleep = clock.Advance
	cache := newTestCache(clock)
	return NewCachedFetcher(gate, cache, nil), gate, cache
}

func fetchReturning(body []byte, err error, calls *int) FetchFunc {
	return func(context.Context) ([]byte, error) {
		if calls != nil {
			*calls++
		}
		return body, err
	}
}

func TestCachedFetcherLiveFetchPopulatesCache(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, _, cache := newTestFetcher(clock)

	data, source, err := f.Get(ctx, "stats:poe1", "poe1:stats", 24*time.Hour, 0,
		fetchReturning([]byte(`{"result":[]}`), nil, nil))
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.JSONEq(t, `{"result":[]}`, string(data))

	entry, ok := cache.ReadFresh(ctx, "stats:poe1", 24*time.Hour)
	require.True(t, ok, "successful fetch must write through")
	require.JSONEq(t, `{"result":[]}`, string(entry.Data))
}

func TestCachedFetcherFreshHitSkipsGateAndUpstream(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, gate, cache := newTestFetcher(clock)
	require.NoError(t, cache.Write(ctx, "stats:poe1", json.RawMessage(`{"v":1}`)))

	calls := 0
	data, source, err := f.Get(ctx, "stats:poe1", "poe1:stats", 24*time.Hour, 5*time.Second,
		fetchReturning(nil, errors.New("must not be called"), &calls))
	require.NoError(t, err)
	require.Equal(t, SourceCache, source)
	require.JSONEq(t, `{"v":1}`, string(data))
	require.Zero(t, calls)
	require.True(t, gate.LastStamp("poe1:stats").IsZero(), "fresh hit must not touch the gate")
}

func TestCachedFetcherStaleFallbackOnBlocked(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, _, cache := newTestFetcher(clock)

	require.NoError(t, cache.Write(ctx, "stats:poe1", json.RawMessage(`{"v":"old"}`)))
	wasFetchedAt := clock.Now()
	clock.Advance(48 * time.Hour)

	data, source, err := f.Get(ctx, "stats:poe1", "poe1:stats", 24*time.Hour, 0,
		fetchReturning(nil, &UpstreamError{Status: http.StatusForbidden}, nil))
	require.NoError(t, err)
	require.Equal(t, SourceStaleBlocked, source)
	require.JSONEq(t, `{"v":"old"}`, string(data))

	// Failed refresh keeps the entry stale rather than refreshing or
	// clearing it.
	entry, ok := cache.ReadStale(ctx, "stats:poe1")
	require.True(t, ok)
	require.True(t, entry.FetchedAt.Equal(wasFetchedAt), "entry timestamp must be untouched")
	_, ok = cache.ReadFresh(ctx, "stats:poe1", 24*time.Hour)
	require.False(t, ok)
}

func TestCachedFetcherStaleFallbackOnServerError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, _, cache := newTestFetcher(clock)

	require.NoError(t, cache.Write(ctx, "stats:poe2", json.RawMessage(`{"v":"old"}`)))
	clock.Advance(48 * time.Hour)

	data, source, err := f.Get(ctx, "stats:poe2", "poe2:stats", 24*time.Hour, 0,
		fetchReturning(nil, &UpstreamError{Status: http.StatusInternalServerError}, nil))
	require.NoError(t, err)
	require.Equal(t, SourceStaleError, source)
	require.JSONEq(t, `{"v":"old"}`, string(data))
}

func TestCachedFetcherStaleFallbackOnTransportError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, _, cache := newTestFetcher(clock)

	require.NoError(t, cache.Write(ctx, "leagues:poe1", json.RawMessage(`["Standard"]`)))
	clock.Advance(8 * 24 * time.Hour)

	data, source, err := f.Get(ctx, "leagues:poe1", "poe1:leagues", 7*24*time.Hour, 0,
		fetchReturning(nil, errors.New("dial tcp: connection refused"), nil))
	require.NoError(t, err)
	require.Equal(t, SourceStaleError, source)
	require.JSONEq(t, `["Standard"]`, string(data))
}

func TestCachedFetcherSuccessfulRefreshReplacesStale(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, _, cache := newTestFetcher(clock)

	require.NoError(t, cache.Write(ctx, "stats:poe1", json.RawMessage(`{"v":"old"}`)))
	clock.Advance(48 * time.Hour)

	data, source, err := f.Get(ctx, "stats:poe1", "poe1:stats", 24*time.Hour, 0,
		fetchReturning([]byte(`{"v":"new"}`), nil, nil))
	require.NoError(t, err)
	require.Equal(t, SourceLive, source)
	require.JSONEq(t, `{"v":"new"}`, string(data))

	entry, ok := cache.ReadFresh(ctx, "stats:poe1", 24*time.Hour)
	require.True(t, ok)
	require.JSONEq(t, `{"v":"new"}`, string(entry.Data))
}

func TestCachedFetcherEmptyCacheFailurePropagates(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, gate, _ := newTestFetcher(clock)

	upErr := &UpstreamError{Status: http.StatusInternalServerError}
	_, _, err := f.Get(ctx, "stats:poe1", "poe1:stats", 24*time.Hour, 0,
		fetchReturning(nil, upErr, nil))

	var got *UpstreamError
	require.ErrorAs(t, err, &got)
	require.Equal(t, http.StatusInternalServerError, got.Status)

	// The failed call still consumed a rate-limit slot.
	require.False(t, gate.LastStamp("poe1:stats").IsZero())
}

func TestCachedFetcherMissWaitsOutGateSpacing(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f, gate, _ := newTestFetcher(clock)

	_, _, err := f.Get(ctx, "k1", "poe1:stats", time.Hour, 5*time.Second,
		fetchReturning([]byte(`{}`), nil, nil))
	require.NoError(t, err)
	first := gate.LastStamp("poe1:stats")

	_, _, err = f.Get(ctx, "k2", "poe1:stats", time.Hour, 5*time.Second,
		fetchReturning([]byte(`{}`), nil, nil))
	require.NoError(t, err)
	second := gate.LastStamp("poe1:stats")

	require.GreaterOrEqual(t, second.Sub(first), 5*time.Second)
}
