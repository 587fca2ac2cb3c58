// Package cache provides the keyed LRU memo used for metadata lookups
// (per-table time ranges, node lists). Entries live until evicted or until
// Clear is called; the owning client clears the cache whenever connection or
// schema parameters change.
package cache

import (
	"container/list"
	"expvar"
	"sync"
)

type entry[V any] struct {
	key   string
	value V
}

// LRU is a fixed-size least-recently-used cache keyed by string.
// A capacity of zero or less disables caching entirely.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	lruList  *list.List
	items    map[string]*list.Element

	hits   *expvar.Int
	misses *expvar.Int
}

// NewLRU creates an LRU with the given capacity.
func NewLRU[V any](capacity int) *LRU[V] {
	return &LRU[V]{
		capacity: capacity,
		lruList:  list.New(),
		items:    make(map[string]*list.Element),
	}
}

// SetMetrics attaches hit/miss counters, typically expvar-published by the
// embedding application.
func (c *LRU[V]) SetMetrics(hits, misses *expvar.Int) {
	c.hits = hits
	c.misses = misses
}

// Get retrieves a value from the cache.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return zero, false
	}
	if elem, ok := c.items[key]; ok {
		if c.hits != nil {
			c.hits.Add(1)
		}
		c.lruList.MoveToFront(elem)
		return elem.Value.(*entry[V]).value, true
	}
	if c.misses != nil {
		c.misses.Add(1)
	}
	return zero, false
}

// Put adds a value to the cache, evicting the least recently used entry when
// full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}
	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*entry[V]).value = value
		return
	}
	if c.lruList.Len() >= c.capacity {
		if elem := c.lruList.Back(); elem != nil {
			removed := c.lruList.Remove(elem).(*entry[V])
			delete(c.items, removed.key)
		}
	}
	c.items[key] = c.lruList.PushFront(&entry[V]{key: key, value: value})
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. Concurrent loaders for the same key may race; the last
// completed load wins, which is acceptable for idempotent lookups.
func (c *LRU[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Put(key, v)
	return v, nil
}

// Len returns the current number of entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Clear removes all entries and resets the metrics.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lruList = list.New()
	c.items = make(map[string]*list.Element)
	if c.hits != nil {
		c.hits.Set(0)
	}
	if c.misses != nil {
		c.misses.Set(0)
	}
}
