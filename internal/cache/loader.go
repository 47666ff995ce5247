package cache

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Loader fronts an LRUCache with a load function. Concurrent misses for
// the same key share one load, and results computed across a Purge are
// returned but not stored.
type Loader[T any] struct {
	cache *LRUCache[T]
	group singleflight.Group
}

func NewLoader[T any](c *LRUCache[T]) *Loader[T] {
	return &Loader[T]{cache: c}
}

// GetOrLoad returns the cached value for key or computes it with load.
// The bool reports a cache hit.
func (l *Loader[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}

	gen := l.cache.currentGeneration()
	// Loads started before a Purge are not shared with callers after it.
	flight := key + "#" + strconv.FormatUint(gen, 10)
	// The load is shared, so one caller going away must not fail the rest.
	v, err, _ := l.group.Do(flight, func() (any, error) {
		data, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.cache.setIfGeneration(key, data, gen)
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), false, nil
}

// Purge empties the underlying cache.
func (l *Loader[T]) Purge() { l.cache.Purge() }

// CleanExpired lets a Manager expire the underlying cache.
func (l *Loader[T]) CleanExpired() int { return l.cache.CleanExpired() }
