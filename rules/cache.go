package rules

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LoadFunc loads the rule set with the given name from its backing source.
type LoadFunc func(name string) (*Set, error)

// Stats exposes cache telemetry. Counters are monotonic and reset only via
// ResetStats.
type Stats struct {
	Hits      uint64        `json:"hits"`
	Misses    uint64        `json:"misses"`
	Evictions uint64        `json:"evictions"`
	Loads     uint64        `json:"loads"`
	LastOp    time.Duration `json:"last_op"`
}

// HitRate returns the fraction of lookups served from the cache, or 0 when no
// lookups happened yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a bounded, time-boxed cache of compiled rule sets keyed by set
// name. Reads refresh recency; inserting beyond capacity evicts the least
// recently used entry in O(1). Entries also expire after the configured TTL.
type Cache struct {
	mu   sync.Mutex
	lru  *expirable.LRU[string, *Set]
	load LoadFunc

	stats Stats
}

// NewCache creates a cache holding at most capacity rule sets, each valid for
// ttl. load is invoked on a miss; it must be safe for concurrent use.
func NewCache(capacity int, ttl time.Duration, load LoadFunc) *Cache {
	if capacity <= 0 {
		capacity = 4
	}
	c := &Cache{load: load}
	c.lru = expirable.NewLRU(capacity, func(string, *Set) {
		c.stats.Evictions++
	}, ttl)
	return c
}

// GetAll returns the default rule set, loading it on a miss.
func (c *Cache) GetAll() (*Set, error) {
	return c.GetSet(DefaultSetName)
}

// GetSet returns the named rule set, loading it on a miss.
func (c *Cache) GetSet(name string) (*Set, error) {
	start := time.Now()
	c.mu.Lock()
	defer func() {
		c.stats.LastOp = time.Since(start)
		c.mu.Unlock()
	}()

	if set, ok := c.lru.Get(name); ok {
		c.stats.Hits++
		return set, nil
	}
	c.stats.Misses++

	if c.load == nil {
		return nil, fmt.Errorf("rule set %q not cached and no loader configured", name)
	}

	set, err := c.load(name)
	if err != nil {
		return nil, fmt.Errorf("load rule set %q: %w", name, err)
	}
	c.stats.Loads++
	c.lru.Add(name, set)
	return set, nil
}

// Get returns a single rule from the default set.
func (c *Cache) Get(id string) (*Rule, error) {
	set, err := c.GetAll()
	if err != nil {
		return nil, err
	}
	r := set.Get(id)
	if r == nil {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return r, nil
}

// Invalidate drops all cached rule sets. The next read reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Len returns the number of cached rule sets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the cache telemetry.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats zeroes the telemetry counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}
