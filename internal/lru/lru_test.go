package lru

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	c := New[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	// b is the least recently used now
	c.Put("c", 3)
	_, ok = c.Get("b")
	require.False(t, ok)
	require.Equal(t, 2, c.Len())

	c.Put("a", 10)
	v, _ = c.Get("a")
	require.Equal(t, 10, v)
	require.Equal(t, 2, c.Len())

	c.Del("a")
	c.Del("missing")
	_, ok = c.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())

	hits, misses := c.Stats()
	require.Equal(t, uint64(2), hits)
	require.Equal(t, uint64(2), misses)
}

func TestDisabled(t *testing.T) {
	c := New[string](0)
	c.Put("a", "x")
	_, ok := c.Get("a")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}
