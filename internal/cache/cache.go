package cache

import (
	"sync"
	"time"
)

// Clock abstracts time so expiry can be driven by tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// Entry represents a cached item with expiration
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// IsExpiredAt returns true if the entry has expired at the given instant
func (e *Entry) IsExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache is a TTL cache with optional background cleanup
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	defaultTTL  time.Duration
	clock       Clock
	stopCleanup chan struct{}
	stopped     bool
}

// New creates a new cache with the specified default TTL.
// A positive cleanupInterval starts a goroutine that drops expired entries;
// call Stop to release it. A nil clock means the wall clock.
func New(defaultTTL, cleanupInterval time.Duration, clock Clock) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	c := &Cache{
		entries:     make(map[string]Entry),
		defaultTTL:  defaultTTL,
		clock:       clock,
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}

	return c
}

// cleanupLoop periodically removes expired entries
func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, entry := range c.entries {
		if entry.IsExpiredAt(now) {
			delete(c.entries, key)
		}
	}
}

// Get retrieves a value from the cache. Returns nil and false if not found or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || entry.IsExpiredAt(c.clock.Now()) {
		return nil, false
	}

	return entry.Value, true
}

// GetStale retrieves a value even if it has expired
func (c *Cache) GetStale(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		Value:     value,
		ExpiresAt: c.clock.Now().Add(ttl),
	}
}

// Delete removes a specific key from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
}

// Stop stops the background cleanup goroutine
func (c *Cache) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	close(c.stopCleanup)
}

// Len returns the number of entries in the cache (including expired ones that haven't been cleaned up yet)
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
