// Package cache provides snapshot cache backends for session revalidation.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/insa-apps/studygate/internal/domain"
)

// LocalCache is the in-process default backend, for single-instance
// deployments where no redis or memcached is configured.
type LocalCache struct {
	cache *gocache.Cache
}

func NewLocalCache() *LocalCache {
	return &LocalCache{
		cache: gocache.New(time.Minute, 5*time.Minute),
	}
}

func (c *LocalCache) Get(ctx context.Context, id string) (domain.Snapshot, bool) {
	cached, found := c.cache.Get(id)
	if !found {
		return domain.Snapshot{}, false
	}
	snap, ok := cached.(domain.Snapshot)
	return snap, ok
}

func (c *LocalCache) Set(ctx context.Context, id string, snapshot domain.Snapshot, ttl time.Duration) error {
	c.cache.Set(id, snapshot, ttl)
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, id string) error {
	c.cache.Delete(id)
	return nil
}
