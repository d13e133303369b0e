// Package cache provides the partitioned LRU+TTL cache that fronts the
// read path of the HTTP API.
//
// Every partition is bounded twice: entries expire after the partition TTL
// and, once the partition is full, the least recently used entry is evicted
// regardless of how much TTL it has left. Reads refresh recency but never
// extend an entry's lifetime, so a hit is never older than the TTL.
package cache

import (
	"sync"

	"github.com/jellydator/ttlcache/v3"
)

// Tiered is a fixed set of independently sized partitions keyed by string.
// It is safe for concurrent use.
type Tiered[V any] struct {
	partitions map[Partition]*ttlcache.Cache[string, V]

	// mu orders invalidations against SetIfGeneration.
	mu          sync.Mutex
	generations map[Partition]uint64
}

// New builds a Tiered cache. Partitions missing from cfg use their defaults;
// partitions outside the known set are ignored.
func New[V any](cfg map[Partition]PartitionConfig) *Tiered[V] {
	defaults := DefaultPartitions()
	t := &Tiered[V]{
		partitions:  make(map[Partition]*ttlcache.Cache[string, V], len(Partitions)),
		generations: make(map[Partition]uint64, len(Partitions)),
	}
	for _, p := range Partitions {
		pc, ok := cfg[p]
		if !ok {
			pc = defaults[p]
		}
		if pc.MaxEntries <= 0 {
			pc.MaxEntries = defaults[p].MaxEntries
		}
		if pc.TTL <= 0 {
			pc.TTL = defaults[p].TTL
		}
		c := ttlcache.New(
			ttlcache.WithTTL[string, V](pc.TTL),
			ttlcache.WithCapacity[string, V](uint64(pc.MaxEntries)),
			ttlcache.WithDisableTouchOnHit[string, V](),
		)
		go c.Start()
		t.partitions[p] = c
	}
	return t
}

// Get returns the cached value for key, or false when it is absent or expired.
func (t *Tiered[V]) Get(p Partition, key string) (V, bool) {
	var zero V
	c, ok := t.partitions[p]
	if !ok {
		return zero, false
	}
	item := c.Get(key)
	if item == nil || item.IsExpired() {
		return zero, false
	}
	return item.Value(), true
}

// Set stores value under key, evicting the least recently used entry if the
// partition is full.
func (t *Tiered[V]) Set(p Partition, key string, value V) {
	c, ok := t.partitions[p]
	if !ok {
		return
	}
	c.Set(key, value, ttlcache.DefaultTTL)
}

// Generation returns a counter that changes every time p is invalidated.
func (t *Tiered[V]) Generation(p Partition) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generations[p]
}

// SetIfGeneration stores value only if p has not been invalidated since gen
// was read. It reports whether the value was stored. Loaders use it so a
// result computed before a write cannot repopulate the cache after the
// write's invalidation.
func (t *Tiered[V]) SetIfGeneration(p Partition, key string, value V, gen uint64) bool {
	c, ok := t.partitions[p]
	if !ok {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generations[p] != gen {
		return false
	}
	c.Set(key, value, ttlcache.DefaultTTL)
	return true
}

// Invalidate removes the given keys from p. With no keys the whole partition
// is cleared.
func (t *Tiered[V]) Invalidate(p Partition, keys ...string) {
	c, ok := t.partitions[p]
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generations[p]++
	if len(keys) == 0 {
		c.DeleteAll()
		return
	}
	for _, k := range keys {
		c.Delete(k)
	}
}

// Len reports the number of entries currently held by p, including entries
// that have expired but not yet been swept.
func (t *Tiered[V]) Len(p Partition) int {
	c, ok := t.partitions[p]
	if !ok {
		return 0
	}
	return c.Len()
}

// Close stops the expiry janitors. The cache must not be used afterwards.
func (t *Tiered[V]) Close() {
	for _, c := range t.partitions {
		c.Stop()
	}
}
