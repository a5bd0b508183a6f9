// Package cache is a small in-process TTL cache for derived, recomputable
// results such as emotion predictions.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Item is a cached value with its expiry in unix nanoseconds (0 = never)
type Item struct {
	Value      any
	Expiration int64
}

// Expired reports whether the item is past its expiry at now
func (item Item) Expired(now time.Time) bool {
	return item.Expiration > 0 && now.UnixNano() > item.Expiration
}

// Options configures a Cache
type Options struct {
	TTL         time.Duration
	PurgeWindow time.Duration
	MaxItems    int
}

// Cache is a thread-safe map with expiry and a size bound
type Cache struct {
	mu        sync.RWMutex
	items     map[string]Item
	opts      Options
	onEvicted func(string, any)
	now       func() time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a cache. A positive PurgeWindow starts a janitor goroutine that
// runs until Close.
func New(opts Options) *Cache {
	c := &Cache{
		items: make(map[string]Item),
		opts:  opts,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if opts.PurgeWindow > 0 {
		go c.janitor(opts.PurgeWindow)
	}
	return c
}

// Set stores value with the default TTL
func (c *Cache) Set(key string, value any) {
	c.SetWithExpiration(key, value, c.opts.TTL)
}

// SetWithExpiration stores value for d. d <= 0 never expires.
func (c *Cache) SetWithExpiration(key string, value any, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = c.now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.opts.MaxItems > 0 && len(c.items) >= c.opts.MaxItems {
		c.evictOldest()
	}
	c.items[key] = Item{Value: value, Expiration: exp}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired(c.now()) {
		return nil, false
	}
	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// DeletePrefix drops every key starting with prefix
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			c.remove(k)
			n++
		}
	}
	return n
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		c.remove(k)
	}
}

// Count includes expired items not yet purged
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// SetOnEvicted registers a callback for every removal
func (c *Cache) SetOnEvicted(f func(string, any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvicted = f
}

// Close stops the janitor
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.items {
		if v.Expired(now) {
			c.remove(k)
		}
	}
}

// evictOldest removes the item closest to expiry; items without expiry go last
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
		found     bool
	)
	for k, v := range c.items {
		exp := v.Expiration
		if exp == 0 {
			exp = 1<<63 - 1
		}
		if !found || exp < oldestExp {
			oldestKey, oldestExp, found = k, exp, true
		}
	}
	if found {
		c.remove(oldestKey)
	}
}

func (c *Cache) remove(key string) {
	item, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	if c.onEvicted != nil {
		c.onEvicted(key, item.Value)
	}
}
