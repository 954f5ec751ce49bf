package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUCache is a thread-safe LRU cache with optional per-entry expiry.
// When the cache reaches its capacity, the least recently used item is evicted.
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	onEvict  func(key K, value V)
}

// NewLRUCache creates a new LRU cache with the specified capacity.
// The capacity must be positive, otherwise it panics.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		now:      time.Now,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

// SetEvictCallback sets a callback invoked when items are evicted, expire or are removed.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// SetTTL makes entries written from now on expire after ttl. Zero disables expiry.
func (c *LRUCache[K, V]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// SetClock replaces time.Now, mainly for tests.
func (c *LRUCache[K, V]) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get retrieves a live value and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(key); ok {
		c.eviction.MoveToFront(c.items[key])
		return entry.value, true
	}

	var zero V
	return zero, false
}

// Put adds or updates a value in the cache.
// Returns the previous live value and whether it existed.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(key); ok {
		c.eviction.MoveToFront(c.items[key])
		old := entry.value
		entry.value = value
		entry.expiresAt = c.expiry()
		return old, true
	}

	c.insert(key, value)
	var zero V
	return zero, false
}

// PutIfAbsent stores value only when key holds no live entry.
// It returns the value now associated with key and whether value was stored,
// so concurrent writers agree on the first one.
func (c *LRUCache[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(key); ok {
		c.eviction.MoveToFront(c.items[key])
		return entry.value, false
	}

	c.insert(key, value)
	return value, true
}

// GetOrCompute returns the live value for key or computes and stores it.
// fn runs outside the lock; if two callers race, the first stored value wins
// and both receive it. Errors are not cached.
func (c *LRUCache[K, V]) GetOrCompute(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		var zero V
		return zero, err
	}
	actual, _ := c.PutIfAbsent(key, v)
	return actual, nil
}

// Update replaces the live value of key with the result of fn under the
// cache lock, keeping its expiry. It reports false without calling fn when
// key holds no live entry. When fn fails the value is left unchanged.
func (c *LRUCache[K, V]) Update(key K, fn func(V) (V, error)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		return false, nil
	}
	v, err := fn(entry.value)
	if err != nil {
		return true, err
	}
	entry.value = v
	c.eviction.MoveToFront(c.items[key])
	return true, nil
}

// Remove removes an item from the cache.
// Returns the removed live value and true if it existed.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lookup(key); ok {
		c.removeElement(c.items[key])
		return entry.value, true
	}

	var zero V
	return zero, false
}

// Len returns the number of entries, expired ones not yet swept included.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Keys returns live keys from most to least recently used.
func (c *LRUCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]K, 0, c.eviction.Len())
	for e := c.eviction.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*lruEntry[K, V])
		if !entry.expired(now) {
			keys = append(keys, entry.key)
		}
	}
	return keys
}

// Clear removes all items from the cache.
// If an evict callback is set, it's called for each item.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for _, elem := range c.items {
			entry := elem.Value.(*lruEntry[K, V])
			c.onEvict(entry.key, entry.value)
		}
	}

	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held. Expired entries are dropped on sight.
func (c *LRUCache[K, V]) lookup(key K) (*lruEntry[K, V], bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if entry.expired(c.now()) {
		c.removeElement(elem)
		return nil, false
	}
	return entry, true
}

// Must be called with lock held.
func (c *LRUCache[K, V]) insert(key K, value V) {
	entry := &lruEntry[K, V]{key: key, value: value, expiresAt: c.expiry()}
	c.items[key] = c.eviction.PushFront(entry)
	if c.eviction.Len() > c.capacity {
		c.evictOldest()
	}
}

// Must be called with lock held.
func (c *LRUCache[K, V]) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// Must be called with lock held.
func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)

	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}

func (e *lruEntry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
