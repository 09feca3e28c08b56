package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLSetGet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "one")

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	c := New[int](time.Minute)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("k", 42)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestTTLOverwriteRefreshes(t *testing.T) {
	c := New[int](time.Minute)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("k", 1)
	c.now = func() time.Time { return base.Add(45 * time.Second) }
	c.Set("k", 2)

	c.now = func() time.Time { return base.Add(90 * time.Second) }
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTTLClear(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "x")
	c.Set("b", "y")
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}
