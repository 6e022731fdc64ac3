package optimizer

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process ResultCache with per-entry TTL. Expired
// entries are dropped lazily on Get and swept by an optional janitor.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	result    *OptimizedCart
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory result cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryCacheEntry)}
}

// Get returns a live cached result for key.
func (c *MemoryCache) Get(_ context.Context, key string) (*OptimizedCart, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, still := c.entries[key]; still && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

// Set stores a result under key for ttl. Results are immutable after
// creation, so the pointer is stored as-is.
func (c *MemoryCache) Set(_ context.Context, key string, result *OptimizedCart, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryCacheEntry{result: result, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Len returns the number of entries, counting expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartJanitor sweeps expired entries every interval until ctx is done.
func (c *MemoryCache) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *MemoryCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
