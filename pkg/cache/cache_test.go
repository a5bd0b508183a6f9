package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetExpire(t *testing.T) {
	c := New(Options{TTL: time.Minute})
	defer c.Close()

	now := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestMaxItemsEvictsSoonestExpiry(t *testing.T) {
	c := New(Options{MaxItems: 2})
	defer c.Close()

	var evicted []string
	c.SetOnEvicted(func(k string, _ any) { evicted = append(evicted, k) })

	c.SetWithExpiration("short", 1, time.Second)
	c.SetWithExpiration("forever", 2, 0)
	c.SetWithExpiration("long", 3, time.Hour)

	assert.Equal(t, []string{"short"}, evicted)
	assert.Equal(t, 2, c.Count())
}

func TestDeletePrefix(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	c.Set("predictions:u1:week", 1)
	c.Set("predictions:u1:month", 2)
	c.Set("predictions:u2:week", 3)

	assert.Equal(t, 2, c.DeletePrefix("predictions:u1:"))
	_, ok := c.Get("predictions:u2:week")
	assert.True(t, ok)
}
