package services

import (
	"context"
	"encoding/json"
	"time"
)

// CacheEntry is the stored envelope for one cacheable upstream resource. The
// payload stays opaque; the proxy never interprets upstream document shapes.
type CacheEntry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Data      json.RawMessage `json:"data"`
}

// Age reports how long ago the entry was fetched.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// TTLCache serves previously fetched upstream payloads with soft freshness:
// entries are written to the backend without expiry and the TTL is evaluated
// against the recorded fetch time, so an entry past its TTL is reported as a
// miss by ReadFresh yet stays available through ReadStale as a fallback.
// Entries are replaced in place on every successful fetch and never evicted.
type TTLCache struct {
	store Store
	now   func() time.Time
}

func NewTTLCache(store Store) *TTLCache {
	return &TTLCache{store: store, now: time.Now}
}

// ReadFresh returns the entry for key only while its age is below ttl.
func (c *TTLCache) ReadFresh(ctx context.Context, key string, ttl time.Duration) (CacheEntry, bool) {
	entry, ok := c.read(ctx, key)
	if !ok {
		return CacheEntry{}, false
	}
	if entry.Age(c.now()) >= ttl {
		return CacheEntry{}, false
	}
	return entry, true
}

// ReadStale returns whatever entry exists for key regardless of age.
func (c *TTLCache) ReadStale(ctx context.Context, key string) (CacheEntry, bool) {
	return c.read(ctx, key)
}

// Write replaces the entry for key with data stamped at the current time.
// Last writer wins.
func (c *TTLCache) Write(ctx context.Context, key string, data json.RawMessage) error {
	entry := CacheEntry{FetchedAt: c.now().UTC(), Data: data}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, b, 0)
}

func (c *TTLCache) read(ctx context.Context, key string) (CacheEntry, bool) {
	b, ok := c.store.Get(ctx, key)
	if !ok {
		return CacheEntry{}, false
	}
	var entry CacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return CacheEntry{}, false
	}
	if entry.FetchedAt.IsZero() {
		return CacheEntry{}, false
	}
	return entry, true
}
