// Package cache is an in-memory TTL cache for rendered list pages.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      any
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is safe for concurrent use. Close stops the cleanup goroutine.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]*entry
	defaultTTL time.Duration
	maxSize    int

	// bumped by InvalidatePrefix and Clear; see Generation
	gens  map[string]uint64
	epoch uint64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(defaultTTL time.Duration, maxSize int) *Cache {
	return NewWithCleanup(defaultTTL, maxSize, time.Minute)
}

func NewWithCleanup(defaultTTL time.Duration, maxSize int, every time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	c := &Cache{
		items:      make(map[string]*entry),
		gens:       make(map[string]uint64),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.cleanupExpired(every)
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.put(key, value, ttl)
}

// Generation returns a token that changes whenever key is invalidated by
// InvalidatePrefix or Clear. Read it before loading a value and hand it to
// SetIfGeneration so a load that raced an invalidation is not stored.
func (c *Cache) Generation(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation(key)
}

// SetIfGeneration stores value only if key has not been invalidated since
// gen was read. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(key string, value any, gen uint64) bool {
	if c.defaultTTL <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(key) != gen {
		return false
	}
	c.put(key, value, c.defaultTTL)
	return true
}

// generation sums the counters of every invalidated prefix covering key.
// Caller holds the lock.
func (c *Cache) generation(key string) uint64 {
	g := c.epoch
	for prefix, n := range c.gens {
		if strings.HasPrefix(key, prefix) {
			g += n
		}
	}
	return g
}

// put stores an entry, evicting when full. Caller holds the lock.
func (c *Cache) put(key string, value any, ttl time.Duration) {
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = &entry{data: value, expiresAt: time.Now().Add(ttl)}
}

// evictOldest drops the entry closest to expiry. Caller holds the lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.items {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidatePrefix removes every key starting with prefix and returns how
// many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[prefix]++
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.epoch++
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
		<-c.done
	})
}

func (c *Cache) cleanupExpired(every time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.items {
				if e.expired(now) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
