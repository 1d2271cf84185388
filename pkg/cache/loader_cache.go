// Package cache provides an LRU that fills itself through a loader, running at most
// one load per key at a time.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache keeps the most recently used values and loads missing ones on demand.
// Concurrent misses for the same key wait on a single load.
type LoaderCache[K comparable, V any] struct {
	entries   *lru.Cache[K, V]
	flights   singleflight.Group
	flightKey func(K) string
}

// NewLoaderCache creates a cache holding up to size values. flightKey maps a key to the
// string used to group concurrent loads; it must be injective.
func NewLoaderCache[K comparable, V any](size int, flightKey func(K) string) (*LoaderCache[K, V], error) {
	entries, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}

	return &LoaderCache[K, V]{entries: entries, flightKey: flightKey}, nil
}

// Load returns the value for key and whether it was already cached. On a miss it runs load
// and caches the result; errors are not cached.
//
// The load runs detached from ctx cancellation so one caller going away does not fail the
// others waiting on the same key. A caller whose ctx ends first gets ctx.Err().
func (c *LoaderCache[K, V]) Load(ctx context.Context, key K, load func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, true, nil
	}

	flight := c.flights.DoChan(c.flightKey(key), func() (any, error) {
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.entries.Add(key, v)

		return v, nil
	})

	var zero V

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return zero, false, res.Err
		}

		return res.Val.(V), false, nil
	}
}

// Contains reports whether key is cached without touching its recency.
func (c *LoaderCache[K, V]) Contains(key K) bool {
	return c.entries.Contains(key)
}

// Len returns the number of cached values.
func (c *LoaderCache[K, V]) Len() int {
	return c.entries.Len()
}
