package engine

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultFieldCacheSize bounds the number of locations whose field names are
// cached.
const DefaultFieldCacheSize = 256

// fieldCache memoizes field enumeration per location key. Writers invalidate
// their location on every commit; concurrent misses for one key share a
// single enumeration. A load that races with an invalidation is returned to
// its callers but not cached.
type fieldCache struct {
	cache *lru.Cache[string, []string]
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64
}

func newFieldCache(size int) *fieldCache {
	if size <= 0 {
		size = DefaultFieldCacheSize
	}
	cache, _ := lru.New[string, []string](size)
	return &fieldCache{cache: cache, gen: make(map[string]uint64)}
}

// get returns cached names for key, calling load on a miss.
func (c *fieldCache) get(key string, load func() ([]string, error)) ([]string, error) {
	if names, ok := c.cache.Get(key); ok {
		return names, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		before := c.generation(key)
		names, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen[key] == before {
			c.cache.Add(key, names)
		}
		c.mu.Unlock()
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *fieldCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[key]
}

func (c *fieldCache) invalidate(key string) {
	c.mu.Lock()
	c.gen[key]++
	c.cache.Remove(key)
	c.mu.Unlock()
	c.group.Forget(key)
}
