package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int64, string](2, time.Minute)
	c.Set(1, "a")
	c.Set(2, "b")
	_, _ = c.Get(1)
	c.Set(3, "c")

	_, ok := c.Get(2)
	assert.False(t, ok, "2 was least recently used")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int64, int](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set(1, 100)
	c.Set(2, 200)
	now = now.Add(2 * time.Second)
	c.Set(3, 300)

	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUDeleteAndOverwrite(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Set("k", 1)
	c.Set("k", 2)
	v, _ := c.Get("k")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())

	c.Delete("k")
	c.Delete("missing")
	assert.Zero(t, c.Size())
}

func TestManagerSweepAndStop(t *testing.T) {
	now := time.Now()
	c := NewLRU[int64, int](10, time.Millisecond)
	c.now = func() time.Time { return now }
	c.Set(1, 1)
	now = now.Add(time.Second)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.Sweep())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
