// Package cache provides the in-process LRU cache used to memoize rendered
// layouts.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic LRU cache.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V)
	Remove(key K)
	Clear()
	Len() int
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
	Bytes     int64
	MaxBytes  int64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// MaxBytes bounds the summed Size of the entries (0 = unlimited).
	// Requires Size.
	MaxBytes int64

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration

	// Size estimates the byte size of a value.
	Size func(value any) int64

	// OnEvict is called when an entry leaves the cache for any reason
	// other than Clear.
	OnEvict func(key, value any)
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{MaxSize: 64}
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	size      int64
	expiresAt time.Time
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	bytes     int64
	stats     Stats
	now       func() time.Time
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	return newLRU[K, V](config)
}

func newLRU[K comparable, V any](config Config) *lruCache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	if config.MaxBytes < 0 || config.Size == nil {
		config.MaxBytes = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
		now:       time.Now,
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	e := ent.Value.(*entry[K, V])
	if c.config.TTL > 0 && c.now().After(e.expiresAt) {
		c.removeElement(ent)
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return e.value, true
}

// Put stores a value. A value larger than MaxBytes on its own is not
// stored.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var size int64
	if c.config.Size != nil {
		size = c.config.Size(value)
	}
	if c.config.MaxBytes > 0 && size > c.config.MaxBytes {
		if ent, ok := c.entries[key]; ok {
			c.removeElement(ent)
		}
		return
	}

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry[K, V])
		c.bytes += size - e.size
		e.value, e.size = value, size
		e.expiresAt = c.expiry()
	} else {
		e := &entry[K, V]{key: key, value: value, size: size, expiresAt: c.expiry()}
		c.entries[key] = c.evictList.PushFront(e)
		c.bytes += size
	}

	for c.over() {
		c.removeElement(c.evictList.Back())
		c.stats.Evictions++
	}
}

func (c *lruCache[K, V]) expiry() time.Time {
	if c.config.TTL <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.config.TTL)
}

func (c *lruCache[K, V]) over() bool {
	if c.evictList.Len() <= 1 {
		return false
	}
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		return true
	}
	return c.config.MaxBytes > 0 && c.bytes > c.config.MaxBytes
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.bytes = 0
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	s.Bytes = c.bytes
	s.MaxBytes = c.config.MaxBytes
	return s
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.bytes -= e.size

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// Memo is an LRU cache that computes missing values on demand.
type Memo[K comparable, V any] struct {
	cache Cache[K, V]
}

// NewMemo creates a memo backed by an LRU cache with the given
// configuration.
func NewMemo[K comparable, V any](config Config) *Memo[K, V] {
	return &Memo[K, V]{cache: NewLRUCache[K, V](config)}
}

// Get returns the cached value for key, computing and caching it on a
// miss. Errors are returned and not cached. The second result reports a
// cache hit.
//
// Concurrent misses on the same key may compute the value more than once;
// the last one stored wins.
func (m *Memo[K, V]) Get(key K, compute func() (V, error)) (V, bool, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	m.cache.Put(key, v)
	return v, false, nil
}

// Forget drops key from the memo.
func (m *Memo[K, V]) Forget(key K) { m.cache.Remove(key) }

// Stats returns the statistics of the underlying cache.
func (m *Memo[K, V]) Stats() Stats { return m.cache.Stats() }
