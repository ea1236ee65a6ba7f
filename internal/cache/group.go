package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/l0p7/regiond/internal/metrics"
)

// DefaultTTL applies when no TTL is configured for the group.
const DefaultTTL = 60 * time.Second

// Group fronts a ResultCache with single-flight coordination: for any key at
// most one computation is in flight at a time, late arrivals wait for its
// outcome, and failures propagate to every waiter without ever being stored.
type Group struct {
	backend ResultCache
	ttl     time.Duration
	flight  singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// GroupOptions configures a Group. Backend is required; Logger and Metrics
// may be nil.
type GroupOptions struct {
	Backend ResultCache
	TTL     time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// NewGroup builds the single-flight coordinator over the given backend.
func NewGroup(opts GroupOptions) *Group {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Group{
		backend: opts.Backend,
		ttl:     ttl,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// GetOrCompute returns the cached payload for key, computing and storing it on
// a miss. The hit flag reports whether the payload came from the cache so
// callers can observe cache behavior without shared side channels. A caller
// whose context ends while waiting on a shared computation stops waiting; the
// computation itself continues and serves the remaining waiters.
func (g *Group) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	lookupStart := time.Now()
	entry, ok, err := g.backend.Lookup(ctx, key)
	switch {
	case err != nil:
		// Backend trouble is not fatal for the request; fall through to a
		// fresh computation.
		g.metrics.ObserveCacheLookup(metrics.CacheLookupError, time.Since(lookupStart))
		if g.logger != nil {
			g.logger.Warn("cache lookup failed", slog.String("key", key), slog.Any("error", err))
		}
	case ok:
		g.metrics.ObserveCacheLookup(metrics.CacheLookupHit, time.Since(lookupStart))
		return entry.Payload, true, nil
	default:
		g.metrics.ObserveCacheLookup(metrics.CacheLookupMiss, time.Since(lookupStart))
	}

	ch := g.flight.DoChan(key, func() (any, error) {
		// Detach from the initiating caller so one cancelled waiter cannot
		// abort the result the others share.
		detached := context.WithoutCancel(ctx)
		payload, err := compute(detached)
		if err != nil {
			return nil, err
		}
		storedAt := time.Now().UTC()
		storeStart := time.Now()
		storeErr := g.backend.Store(detached, key, Entry{
			Payload:   payload,
			StoredAt:  storedAt,
			ExpiresAt: storedAt.Add(g.ttl),
		})
		if storeErr != nil {
			g.metrics.ObserveCacheStore(metrics.CacheStoreError, time.Since(storeStart))
			if g.logger != nil {
				g.logger.Warn("cache store failed", slog.String("key", key), slog.Any("error", storeErr))
			}
		} else {
			g.metrics.ObserveCacheStore(metrics.CacheStoreStored, time.Since(storeStart))
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			g.metrics.ObserveFlightShared()
		}
		return res.Val.([]byte), false, nil
	}
}

// Size reports the backend entry count.
func (g *Group) Size(ctx context.Context) (int64, error) {
	return g.backend.Size(ctx)
}

// Close releases the backend.
func (g *Group) Close(ctx context.Context) error {
	return g.backend.Close(ctx)
}
