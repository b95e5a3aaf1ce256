package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/insa-apps/studygate/internal/domain"
)

// MemcachedCache is the memcached-backed snapshot cache.
type MemcachedCache struct {
	mc *memcache.Client
}

func NewMemcachedCache(mc *memcache.Client) *MemcachedCache {
	return &MemcachedCache{mc: mc}
}

func (c *MemcachedCache) Get(ctx context.Context, id string) (domain.Snapshot, bool) {
	item, err := c.mc.Get(snapshotKeyPrefix + id)
	if err != nil {
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(item.Value, &snap); err != nil {
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (c *MemcachedCache) Set(ctx context.Context, id string, snapshot domain.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.mc.Set(&memcache.Item{
		Key:        snapshotKeyPrefix + id,
		Value:      raw,
		Expiration: int32(ttl / time.Second),
	})
}

func (c *MemcachedCache) Delete(ctx context.Context, id string) error {
	err := c.mc.Delete(snapshotKeyPrefix + id)
	if err == memcache.ErrCacheMiss {
		return nil
	}
	return err
}
