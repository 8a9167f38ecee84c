package panel

import (
	"sort"
	"strings"
	"sync"
)

// QueryCache holds fetched responses by request key
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]interface{})}
}

func (c *QueryCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *QueryCache) Set(key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// MutatePrefix drops every entry whose key starts with prefix and returns the dropped keys, sorted
func (c *QueryCache) MutatePrefix(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped []string
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Cached returns the entry for key, fetching and storing it on a miss
func Cached[T any](c *QueryCache, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
