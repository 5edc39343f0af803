package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalCache(t *testing.T) {
	c := NewLocalCache(time.Minute, 0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, 0)
	c.Set("b", 2, time.Second)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok, "expired entry should be gone")

	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLocalCachePurgeAndClear(t *testing.T) {
	c := NewLocalCache(time.Second, 0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("old", "x", 0)
	c.Set("new", "y", time.Hour)
	now = now.Add(time.Minute)
	c.purgeExpired()

	count := 0
	c.data.Range(func(_, _ interface{}) bool { count++; return true })
	assert.Equal(t, 1, count)

	c.Clear()
	_, ok := c.Get("new")
	assert.False(t, ok)
}

func TestLocalCacheCloseTwice(t *testing.T) {
	c := NewLocalCache(time.Second, 10*time.Millisecond)
	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}
