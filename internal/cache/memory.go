package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultTTL        = 30 * time.Second
	defaultMaxEntries = 4096
)

type memoryCache struct {
	ttl     time.Duration
	entries *lru.LRU[string, Entry]
}

// NewMemory builds the in-process backend. Capacity is enforced with
// least-recently-used eviction; entries expire ttl after creation regardless
// of access pattern. onEvict, when non-nil, fires for every entry removed by
// TTL or capacity pressure.
func NewMemory(ttl time.Duration, maxEntries int, onEvict func(key string)) ResultCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	var evict func(string, Entry)
	if onEvict != nil {
		evict = func(key string, _ Entry) { onEvict(key) }
	}
	return &memoryCache{
		ttl:     ttl,
		entries: lru.NewLRU[string, Entry](maxEntries, evict, ttl),
	}
}

func (c *memoryCache) Lookup(_ context.Context, key string) (Entry, bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	// The entry carries its own expiry as well; honor it in case it is
	// stricter than the backend-wide TTL.
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		c.entries.Remove(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *memoryCache) Store(_ context.Context, key string, entry Entry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	if entry.ExpiresAt.IsZero() || entry.ExpiresAt.Before(entry.StoredAt) {
		entry.ExpiresAt = entry.StoredAt.Add(c.ttl)
	}
	c.entries.Add(key, entry)
	return nil
}

func (c *memoryCache) Size(_ context.Context) (int64, error) {
	return int64(c.entries.Len()), nil
}

func (c *memoryCache) Close(_ context.Context) error {
	return nil
}
