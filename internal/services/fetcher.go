package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Source tags where a cached fetch's payload came from.
type Source string

const (
	SourceCache        Source = "cache"
	SourceLive         Source = "live"
	SourceStaleBlocked Source = "stale_blocked"
	SourceStaleError   Source = "stale_error"
)

// FetchFunc performs the actual upstream call for a cacheable resource.
type FetchFunc func(ctx context.Context) ([]byte, error)

// CachedFetcher is the read-through policy for cache-eligible upstream
// resources: fresh cache first; on miss, a rate-gated live fetch written back
// to the cache; on upstream failure, whatever stale entry exists. A failed
// refresh leaves the stale entry in place with its age still growing.
type CachedFetcher struct {
	gate  *RateGate
	cache *TTLCache
	log   *zap.Logger
}

func NewCachedFetcher(gate *RateGate, cache *TTLCache, log *zap.Logger) *CachedFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedFetcher{gate: gate, cache: cache, log: log}
}

// Get resolves the resource at key. A fresh cache hit returns immediately
// without touching the gate. Otherwise the caller waits out the route-class
// spacing, the upstream is queried once (no retries; the spacing is the only
// defense against hammering a failing upstream), and the result is written
// through. Failures fall back to a stale entry when one exists; with nothing
// to fall back to, the upstream error is returned as-is.
func (f *CachedFetcher) Get(ctx context.Context, key, routeClass string, ttl, minDelay time.Duration, fetch FetchFunc) (json.RawMessage, Source, error) {
	if entry, ok := f.cache.ReadFresh(ctx, key, ttl); ok {
		return entry.Data, SourceCache, nil
	}

	f.gate.Wait(routeClass, minDelay)

	body, err := fetch(ctx)
	if err == nil {
		if werr := f.cache.Write(ctx, key, body); werr != nil {
			f.log.Warn("cache write failed", zap.String("key", key), zap.Error(werr))
		}
		return body, SourceLive, nil
	}

	if entry, ok := f.cache.ReadStale(ctx, key); ok {
		source := SourceStaleError
		if IsBlocked(err) {
			source = SourceStaleBlocked
		}
		f.log.Warn("serving stale cache after upstream failure",
			zap.String("key", key),
			zap.String("source", string(source)),
			zap.Duration("age", entry.Age(time.Now())),
			zap.Error(err))
		return entry.Data, source, nil
	}

	return nil, "", err
}
