package clients

import (
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

func TestClientIsCachedPerUserAndProcess(t *testing.T) {
	c := NewCacheWithBackend(newMapBackend())

	builds := 0
	build := func() (any, error) {
		builds++
		return "client", nil
	}

	_, err := c.Client("alice", "p1", build)
	require.NoError(t, err)
	_, err = c.Client("alice", "p1", build)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)

	_, err = c.Client("bob", "p1", build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds, "a different user must get a different client")
}

func TestReleaseDropsOnlyThePair(t *testing.T) {
	c := NewCacheWithBackend(newMapBackend())

	builds := 0
	build := func() (any, error) {
		builds++
		return "client", nil
	}

	_, err := c.Client("alice", "p1", build)
	require.NoError(t, err)
	_, err = c.Client("alice", "p2", build)
	require.NoError(t, err)
	require.Equal(t, 2, builds)

	c.Release("alice", "p1")

	_, err = c.Client("alice", "p2", build)
	require.NoError(t, err)
	assert.Equal(t, 2, builds, "the other process keeps its cached client")

	_, err = c.Client("alice", "p1", build)
	require.NoError(t, err)
	assert.Equal(t, 3, builds, "the released pair is rebuilt")
}
