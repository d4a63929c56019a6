package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/geo"
)

// sampleStore is the subset of *redis.Client the cache uses.
type sampleStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache is a read-through cache of raw samples keyed by the point
// rounded to three decimals (about 100 m).
type RedisCache struct {
	next   Source
	rdb    sampleStore
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisCache(next Source, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return newRedisCache(next, rdb, ttl, logger)
}

func newRedisCache(next Source, rdb sampleStore, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(p geo.Point) string {
	return fmt.Sprintf("traffic:%.3f,%.3f", p.Latitude, p.Longitude)
}

// Sample serves from Redis when possible. Cache failures fall through to
// the upstream source; upstream errors are never cached.
func (c *RedisCache) Sample(ctx context.Context, p geo.Point) (Sample, error) {
	key := cacheKey(p)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s Sample
		if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
			return s, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding malformed cached traffic sample")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("traffic cache read failed")
	}

	s, err := c.next.Sample(ctx, p)
	if err != nil {
		return Sample{}, err
	}

	if data, mErr := json.Marshal(s); mErr == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn().Err(setErr).Str("key", key).Msg("traffic cache write failed")
		}
	}
	return s, nil
}
