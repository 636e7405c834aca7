package cache

import "sync"

// Stats counts lookups served by a cache.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Memo is an unbounded get-or-create map guarded by a single mutex. The
// build function runs under the lock, so a key is populated at most once
// and concurrent misses on the same key observe the first result. Entries
// are never evicted.
type Memo[K comparable, V any] struct {
	mu    sync.Mutex
	data  map[K]V
	stats Stats
}

// NewMemo returns an empty Memo sized for hint entries.
func NewMemo[K comparable, V any](hint int) *Memo[K, V] {
	return &Memo[K, V]{data: make(map[K]V, hint)}
}

// GetOrCreate returns the value cached under key, building and inserting it
// on a miss. created reports whether this call ran build. A failed build
// inserts nothing.
func (m *Memo[K, V]) GetOrCreate(key K, build func(K) (V, error)) (v V, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data[key]; ok {
		m.stats.Hits++
		return existing, false, nil
	}
	m.stats.Misses++

	v, err = build(key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	m.data[key] = v
	return v, true, nil
}

// Get returns the value cached under key without building it.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Stats returns a snapshot of the hit and miss counters.
func (m *Memo[K, V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Range calls fn for every entry until fn returns false. fn must not call
// back into m.
func (m *Memo[K, V]) Range(fn func(K, V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.data {
		if !fn(k, v) {
			return
		}
	}
}
