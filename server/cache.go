package server

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// responseCache memoizes encoded response bodies. Keys embed the store
// version, so a cache hit is always consistent with the current state and
// stale entries simply age out of the LRU; no explicit invalidation.
type responseCache struct {
	lru *lru.Cache[string, []byte]
}

func newResponseCache(size int) *responseCache {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &responseCache{lru: c}
}

func (c *responseCache) key(endpoint string, version uint64) string {
	return fmt.Sprintf("%s|%d", endpoint, version)
}

func (c *responseCache) get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *responseCache) put(key string, body []byte) {
	c.lru.Add(key, body)
}
