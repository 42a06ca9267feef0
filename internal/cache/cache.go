// Package cache is the read-through/write-invalidate coherence layer in
// front of the shared state store. Population is lazy, on read miss only;
// writers evict. A reader racing a writer may see a stale entry for at
// most one TTL window.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"service-fleet/internal/kv"
	"service-fleet/internal/logx"
)

// Cache wraps the shared store with family-scoped entries. A broken store
// never fails a read: the loader result is served uncached instead.
type Cache struct {
	store  kv.Store
	logger logx.Logger
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// New creates a Cache. hit/miss counters are optional.
func New(store kv.Store, logger logx.Logger, hits, misses *prometheus.CounterVec) *Cache {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Cache{store: store, logger: logger, hits: hits, misses: misses}
}

// ReadThrough returns the cached value under family/key, or invokes loader
// and caches its result with the given TTL. loader returning ok=false means
// "absent": the zero value is returned and nothing is cached, so a missing
// row is never remembered as truth.
func ReadThrough[T any](
	ctx context.Context,
	c *Cache,
	family, key string,
	ttl time.Duration,
	loader func(context.Context) (T, bool, error),
) (T, bool, error) {
	var zero T

	full := fullKey(family, key)
	raw, err := c.store.Get(ctx, full)
	switch {
	case err == nil:
		var v T
		if uerr := json.Unmarshal(raw, &v); uerr == nil {
			c.count(c.hits, family)
			return v, true, nil
		}
		// undecodable entry: drop it and fall through to the loader
		c.logger.Warn("cache entry corrupt, evicting",
			logx.String("family", family),
			logx.String("key", key),
		)
		_ = c.store.Delete(ctx, full)
	case !errors.Is(err, kv.ErrNotFound):
		c.logger.Warn("cache read failed, serving from source",
			logx.String("family", family),
			logx.Any("err", err),
		)
	}
	c.count(c.misses, family)

	v, ok, err := loader(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	if raw, merr := json.Marshal(v); merr == nil {
		if serr := c.store.Set(ctx, full, raw, ttl); serr != nil {
			c.logger.Warn("cache populate failed",
				logx.String("family", family),
				logx.Any("err", serr),
			)
		}
	}
	return v, true, nil
}

// Invalidate evicts entries of a family. With no keys the whole family is
// cleared; with keys only those entries are removed.
func (c *Cache) Invalidate(ctx context.Context, family string, keys ...string) error {
	if len(keys) == 0 {
		return c.store.DeletePrefix(ctx, familyPrefix(family))
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = fullKey(family, k)
	}
	return c.store.Delete(ctx, full...)
}

func (c *Cache) count(vec *prometheus.CounterVec, family string) {
	if vec != nil {
		vec.WithLabelValues(family).Inc()
	}
}
