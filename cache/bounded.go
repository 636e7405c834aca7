package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Bounded is a size-limited LRU cache. Concurrent misses on the same key
// share one build.
type Bounded[V any] struct {
	cache *lru.Cache[string, V]
	group singleflight.Group
}

// NewBounded returns a cache holding at most size entries. onEvict, when
// non-nil, is called for every entry dropped by capacity or Purge.
func NewBounded[V any](size int, onEvict func(key string, value V)) (*Bounded[V], error) {
	var (
		c   *lru.Cache[string, V]
		err error
	)
	if onEvict != nil {
		c, err = lru.NewWithEvict(size, onEvict)
	} else {
		c, err = lru.New[string, V](size)
	}
	if err != nil {
		return nil, fmt.Errorf("create bounded cache: %w", err)
	}
	return &Bounded[V]{cache: c}, nil
}

// GetOrBuild returns the value cached under key, building it on a miss.
// shared reports whether the value came from the cache or another caller's
// in-flight build.
func (b *Bounded[V]) GetOrBuild(key string, build func() (V, error)) (value V, shared bool, err error) {
	// Fast path
	if v, ok := b.cache.Get(key); ok {
		return v, true, nil
	}

	res, err, shared := b.group.Do(key, func() (any, error) {
		// Double-check after joining the flight
		if v, ok := b.cache.Get(key); ok {
			return v, nil
		}
		v, err := build()
		if err != nil {
			return nil, err
		}
		b.cache.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), shared, nil
}

// Get returns the cached value without building it.
func (b *Bounded[V]) Get(key string) (V, bool) {
	return b.cache.Get(key)
}

// Len returns the number of cached entries.
func (b *Bounded[V]) Len() int {
	return b.cache.Len()
}

// Purge drops every entry.
func (b *Bounded[V]) Purge() {
	b.cache.Purge()
}
