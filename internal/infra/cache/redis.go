package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insa-apps/studygate/internal/domain"
)

const snapshotKeyPrefix = "snapshot:"

// RedisCache shares refreshed snapshots across gateway instances.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, id string) (domain.Snapshot, bool) {
	raw, err := c.rdb.Get(ctx, snapshotKeyPrefix+id).Bytes()
	if err != nil {
		return domain.Snapshot{}, false
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, false
	}
	return snap, true
}

func (c *RedisCache) Set(ctx context.Context, id string, snapshot domain.Snapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, snapshotKeyPrefix+id, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, snapshotKeyPrefix+id).Err()
}
