package sources

import (
	"encoding/json"

	"github.com/patrickmn/go-cache"
)

// ResponseCache holds successful tracker responses for the lifetime of one
// run. Entries never expire and a key is written at most once.
type ResponseCache struct {
	store *cache.Cache
}

func NewResponseCache() *ResponseCache {
	return &ResponseCache{store: cache.New(cache.NoExpiration, 0)}
}

// Key composes the cache key from a query and its variables. Variables are
// marshalled as JSON, which orders map keys.
func (c *ResponseCache) Key(query string, variables map[string]any) string {
	vars, err := json.Marshal(variables)
	if err != nil {
		return query
	}
	return query + "\x00" + string(vars)
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Put stores body under key unless the key is already populated.
func (c *ResponseCache) Put(key string, body []byte) bool {
	return c.store.Add(key, body, cache.NoExpiration) == nil
}

func (c *ResponseCache) Len() int {
	return c.store.ItemCount()
}
