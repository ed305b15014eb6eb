package zonesource

import (
	"sync"

	"github.com/ngrash/go-libtz/tz"
)

// Cache memoizes zones by name. Concurrent callers asking for the same
// name receive the same *tz.Zone. Failed loads are not cached.
type Cache struct {
	loader *Loader

	mu    sync.RWMutex
	zones map[string]*tz.Zone

	// Metrics
	hits   int64
	misses int64
}

// NewCache returns a cache in front of l. A nil l is the zero Loader.
func NewCache(l *Loader) *Cache {
	if l == nil {
		l = &Loader{}
	}
	return &Cache{
		loader: l,
		zones:  make(map[string]*tz.Zone),
	}
}

// Get returns the zone called name, loading it on first use.
func (c *Cache) Get(name string) (*tz.Zone, error) {
	c.mu.RLock()
	z, ok := c.zones[name]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		c.loader.logger().Debug("zone cache hit", "name", name)
		return z, nil
	}

	loaded, err := c.loader.Load(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
	if z, ok := c.zones[name]; ok {
		// Another caller won the race.
		return z, nil
	}
	c.zones[name] = loaded
	return loaded, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of cached zones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.zones)
}
