package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pauseshop/backend/internal/domain"
)

const cleanupInterval = 10 * time.Minute

// screenshotItem is a cached screenshot with its expiration
type screenshotItem struct {
	dataURL    string
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory screenshot cache with TTL support
type MemoryCache struct {
	data  map[string]screenshotItem
	mutex sync.RWMutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache. Call Close to stop the
// background cleanup.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]screenshotItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves the screenshot stored for pauseID
func (c *MemoryCache) Get(ctx context.Context, pauseID string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[pauseID]
	if !exists || c.now().After(item.expiration) {
		return "", domain.ErrCacheMiss
	}

	return item.dataURL, nil
}

// Set stores a screenshot for pauseID with TTL
func (c *MemoryCache) Set(ctx context.Context, pauseID string, dataURL string, ttl time.Duration) error {
	if pauseID == "" {
		return domain.ErrInvalidRequest
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[pauseID] = screenshotItem{
		dataURL:    dataURL,
		expiration: c.now().Add(ttl),
	}

	return nil
}

// Delete removes the screenshot stored for pauseID
func (c *MemoryCache) Delete(ctx context.Context, pauseID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, pauseID)
	return nil
}

// Size returns the current number of items in the cache, expired or not
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries periodically until Close
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
