package optimizer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "cartopt:result:"

// RedisCache is a ResultCache backed by Redis, for deployments where
// several service replicas should share memoized results. Redis errors
// degrade to cache misses; they never fail an optimization call.
type RedisCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log.With().Str("component", "redis_result_cache").Logger(),
	}
}

// Get fetches and decodes a cached result.
func (c *RedisCache) Get(ctx context.Context, key string) (*OptimizedCart, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("Redis get failed, treating as miss")
		}
		return nil, false
	}
	var result OptimizedCart
	if err := json.Unmarshal(payload, &result); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to decode cached result, treating as miss")
		return nil, false
	}
	return &result, true
}

// Set encodes and stores a result with ttl.
func (c *RedisCache) Set(ctx context.Context, key string, result *OptimizedCart, ttl time.Duration) {
	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode result for cache")
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, payload, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Redis set failed")
	}
}
