package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapBackend struct {
	m map[string]any
}

func newMapBackend() *mapBackend {
	return &mapBackend{m: make(map[string]any)}
}

func (b *mapBackend) Get(key string) (any, bool) {
	v, ok := b.m[key]
	return v, ok
}

func (b *mapBackend) Set(key string, value any) bool {
	b.m[key] = value
	return true
}

func (b *mapBackend) Del(key string) {
	delete(b.m, key)
}

func TestCacheHit(t *testing.T) {
	backend := newMapBackend()
	backend.Set("key", "value")

	isCachableFnCalled := false
	cacheableFn := func() (string, error) {
		isCachableFnCalled = true
		return "h", nil
	}

	v, err := Cacheable[string, string]("key", cacheableFn, backend)
	assert.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, false, isCachableFnCalled, "cacheable fn should not have been called")
}

func TestCacheMiss(t *testing.T) {
	backend := newMapBackend()

	isCachableFnCalled := false
	cacheableFn := func() (string, error) {
		isCachableFnCalled = true
		return "built", nil
	}

	v, err := Cacheable[string, string]("key", cacheableFn, backend)
	assert.NoError(t, err)
	assert.Equal(t, "built", v)
	assert.Equal(t, true, isCachableFnCalled, "cacheable fn should have been called")

	cached, ok := backend.Get("key")
	require.True(t, ok)
	assert.Equal(t, "built", cached)
}

func TestCacheMissError(t *testing.T) {
	backend := newMapBackend()

	cacheableFn := func() (string, error) {
		return "", errors.New("backend unavailable")
	}

	_, err := Cacheable[string, string]("key", cacheableFn, backend)
	assert.Error(t, err)
	_, ok := backend.Get("key")
	assert.False(t, ok, "a failed retrieval must not be cached")
}
