// Package cache provides the concurrent primitives the shared state is built on:
// a sharded key-value cache with upsert semantics and oldest-write eviction,
// an in-flight task marker set, and an atomic whole-value slot.
package cache

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 16

// Entry is a cached value together with its last-write time.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	UpdatedAt time.Time
	seq       uint64
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*Entry[K, V]
}

// Cache is a concurrent map with unconditional upsert and optional capacity.
//
// Keys are spread over independent shards, so writing one key never blocks
// reads or writes of keys that live in other shards. Entries are replaced,
// never mutated in place, so a reader always sees a complete value.
//
// When capacity is positive and an insert pushes the size past it, the entry
// with the oldest last write is evicted. Write order is tracked with a
// monotonic sequence, so ties in wall-clock time resolve by insertion order.
type Cache[K comparable, V any] struct {
	shards   [shardCount]shard[K, V]
	seed     maphash.Seed
	capacity int
	size     atomic.Int64
	seq      atomic.Uint64

	// evictMu serializes evictors. Readers and updates of existing keys never take it.
	evictMu   sync.Mutex
	evictions atomic.Uint64
	onEvict   func(key K, value V)
}

// New returns a cache bounded to capacity entries. A capacity of 0 or less
// means unbounded.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	c := &Cache[K, V]{
		seed:     maphash.MakeSeed(),
		capacity: capacity,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*Entry[K, V])
	}
	return c
}

// OnEvict registers a callback invoked after an entry is evicted for capacity.
// It must be set before the cache is shared.
func (c *Cache[K, V]) OnEvict(fn func(key K, value V)) {
	c.onEvict = fn
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	h := maphash.Comparable(c.seed, key)
	return &c.shards[h%shardCount]
}

func (c *Cache[K, V]) newEntry(key K, value V) *Entry[K, V] {
	return &Entry[K, V]{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
		seq:       c.seq.Add(1),
	}
}

// Upsert stores value under key, replacing any previous value.
func (c *Cache[K, V]) Upsert(key K, value V) {
	s := c.shardFor(key)

	// The sequence is taken under the shard lock so the entry that wins a
	// race for the same key also carries the newest sequence.
	s.mu.Lock()
	_, existed := s.entries[key]
	s.entries[key] = c.newEntry(key, value)
	s.mu.Unlock()

	if !existed {
		c.grew()
	}
}

// Compute atomically replaces the value under key with fn(old, found).
// fn runs under the key's shard lock and must not call back into the cache.
func (c *Cache[K, V]) Compute(key K, fn func(old V, found bool) V) V {
	s := c.shardFor(key)

	s.mu.Lock()
	var old V
	prev, existed := s.entries[key]
	if existed {
		old = prev.Value
	}
	e := c.newEntry(key, fn(old, existed))
	s.entries[key] = e
	s.mu.Unlock()

	if !existed {
		c.grew()
	}
	return e.Value
}

// Get returns the value stored under key. It never waits on writers of other shards.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Entry returns the full entry for key, including its last-write time.
func (c *Cache[K, V]) Entry(key K) (Entry[K, V], bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Entry[K, V]{}, false
	}
	return *e, true
}

// Delete removes key. It reports whether an entry was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if ok {
		c.size.Add(-1)
	}
	return ok
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return int(c.size.Load())
}

// Capacity returns the configured bound, 0 when unbounded.
func (c *Cache[K, V]) Capacity() int {
	if c.capacity < 0 {
		return 0
	}
	return c.capacity
}

// Evictions returns how many entries were dropped for capacity.
func (c *Cache[K, V]) Evictions() uint64 {
	return c.evictions.Load()
}

// Range calls fn for every entry until fn returns false.
// Shards are visited one at a time; fn must not call back into the cache.
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for k, e := range s.entries {
			if !fn(k, e.Value) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n := len(s.entries)
		s.entries = make(map[K]*Entry[K, V])
		s.mu.Unlock()
		c.size.Add(-int64(n))
	}
}

func (c *Cache[K, V]) grew() {
	n := c.size.Add(1)
	if c.capacity > 0 && n > int64(c.capacity) {
		c.evict()
	}
}

func (c *Cache[K, V]) evict() {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	for c.size.Load() > int64(c.capacity) {
		if !c.evictOldest() {
			return
		}
	}
}

// evictOldest removes the entry with the lowest write sequence.
// It returns false only when the cache is empty.
func (c *Cache[K, V]) evictOldest() bool {
	var victim *Entry[K, V]
	var owner *shard[K, V]

	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		for _, e := range s.entries {
			if victim == nil || e.seq < victim.seq {
				victim, owner = e, s
			}
		}
		s.mu.RUnlock()
	}
	if victim == nil {
		return false
	}

	owner.mu.Lock()
	cur, ok := owner.entries[victim.Key]
	if !ok || cur != victim {
		// Rewritten or deleted since the scan; the caller rescans.
		owner.mu.Unlock()
		return true
	}
	delete(owner.entries, victim.Key)
	owner.mu.Unlock()

	c.size.Add(-1)
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(victim.Key, victim.Value)
	}
	return true
}
