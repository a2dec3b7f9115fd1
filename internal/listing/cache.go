package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/otomarket/chat-platform/internal/model"
	"github.com/otomarket/chat-platform/pkg/logger"
	"github.com/otomarket/chat-platform/pkg/metrics"
)

// CachedResolver decorates a Resolver with a Redis TTL cache so repeated
// lookups of the same listing do not hammer the catalog. Cache failures fall
// through to the inner resolver.
type CachedResolver struct {
	inner  Resolver
	rdb    *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedResolver wraps inner with a Redis-backed cache.
func NewCachedResolver(inner Resolver, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedResolver{inner: inner, rdb: rdb, ttl: ttl, logger: log}
}

func cacheKey(carID string) string {
	return fmt.Sprintf("listing:%s", carID)
}

// Resolve returns the cached metadata when fresh, otherwise resolves and
// stores it with the configured TTL.
func (c *CachedResolver) Resolve(ctx context.Context, carID string) (*model.CarInfo, error) {
	key := cacheKey(carID)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var car model.CarInfo
		if err := json.Unmarshal([]byte(cached), &car); err == nil {
			metrics.ListingCacheHits.Inc()
			return &car, nil
		}
		// Corrupt entry: drop it and fall through.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("listing cache read failed", "car_id", carID, "error", err)
	}
	metrics.ListingCacheMisses.Inc()

	car, err := c.inner.Resolve(ctx, carID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(car); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("listing cache write failed", "car_id", carID, "error", err)
		}
	}
	return car, nil
}
