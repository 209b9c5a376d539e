package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/mmenanno/media-janitor/internal/api"
)

// StatusCache provides a simple time-based cache for integration status
type StatusCache struct {
	mu       sync.RWMutex
	source   api.StatusSource
	status   *api.IntegrationStatus
	cachedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewStatusCache creates a new status cache with the given TTL
func NewStatusCache(source api.StatusSource, ttl time.Duration) *StatusCache {
	return &StatusCache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the cached status, fetching it when missing or expired
func (c *StatusCache) Get(ctx context.Context) (api.IntegrationStatus, error) {
	if status := c.cached(); status != nil {
		return *status, nil
	}
	if c.source == nil {
		return api.IntegrationStatus{}, nil
	}

	status, err := c.source.IntegrationStatus(ctx)
	if err != nil {
		return api.IntegrationStatus{}, err
	}
	c.Set(status)
	return *status, nil
}

func (c *StatusCache) cached() *api.IntegrationStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status == nil {
		return nil
	}

	if c.now().Sub(c.cachedAt) > c.ttl {
		return nil
	}

	return c.status
}

// Set stores a status in the cache
func (c *StatusCache) Set(status *api.IntegrationStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
	c.cachedAt = c.now()
}

// Invalidate clears the cache
func (c *StatusCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = nil
}
