// Package clients caches downstream deploy clients per (user, process)
// pair.  A cached client binds the user's credentials, so the entry must be
// dropped whenever a process changes hands.
package clients

import (
	"fmt"

	"gitlab.com/mta-deploy/deployctl/common/cache"
)

// Cache holds deploy clients keyed by user and process id.
type Cache struct {
	backend cache.Backend[string, any]
}

// NewCache constructs a client cache over a ristretto backend.
func NewCache() (*Cache, error) {
	backend, err := cache.NewRistrettoCacheBackend[string, any]()
	if err != nil {
		return nil, fmt.Errorf("create client cache backend: %w", err)
	}
	return &Cache{backend: backend}, nil
}

// NewCacheWithBackend constructs a client cache over the supplied backend.
func NewCacheWithBackend(backend cache.Backend[string, any]) *Cache {
	return &Cache{backend: backend}
}

func key(user string, processID string) string {
	return user + "\x1f" + processID
}

// Client returns the cached client for the pair, building one on a miss.
func (c *Cache) Client(user string, processID string, build func() (any, error)) (any, error) {
	v, err := cache.Cacheable[string, any](key(user, processID), build, c.backend)
	if err != nil {
		return nil, fmt.Errorf("get deploy client: %w", err)
	}
	return v, nil
}

// Release drops the cached client bound to the pair.
func (c *Cache) Release(user string, processID string) {
	c.backend.Del(key(user, processID))
}
