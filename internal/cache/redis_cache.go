package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contextcraft/contextcraft/pkg/logging"
)

// keyPrefix namespaces recovery cache entries in a shared Redis instance
const keyPrefix = "recovery_response"

// Config holds cache configuration
type Config struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() *Config {
	return &Config{
		TTL: 5 * time.Minute,
	}
}

// envelope is the stored shape. Responses are arbitrary JSON values, so
// they are wrapped to keep the stored type unambiguous.
type envelope struct {
	Value    json.RawMessage `json:"value"`
	CachedAt time.Time       `json:"cached_at"`
}

// RedisCache is a Redis-backed response cache. It implements
// resilience.ResponseCache so the recovery manager can swap it in for
// the in-memory cache when multiple instances share fallback state.
//
// Cache failures are never surfaced to callers: a Redis error on read
// is a miss, and an error on write drops the entry. The cache is a
// last-resort recovery path, not a source of truth.
type RedisCache struct {
	client *redis.Client
	config *Config
	logger *logging.Logger
}

// NewRedisCache creates a Redis-backed response cache
func NewRedisCache(client *redis.Client, config *Config, logger *logging.Logger) *RedisCache {
	if config == nil {
		config = DefaultConfig()
	}

	return &RedisCache{
		client: client,
		config: config,
		logger: logger,
	}
}

// Get retrieves a cached response by key. Any Redis or decoding error
// is reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WithError(err).Warn("response cache read failed, treating as miss")
		}
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("response cache entry corrupt, treating as miss")
		}
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal(env.Value, &value); err != nil {
		return nil, false
	}

	return value, true
}

// Put stores a response under key. Values that cannot be serialized are
// silently dropped; expiry is handled by Redis TTL.
func (c *RedisCache) Put(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("response not serializable, skipping cache write")
		}
		return
	}

	data, err := json.Marshal(envelope{
		Value:    raw,
		CachedAt: time.Now(),
	})
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, c.redisKey(key), data, c.config.TTL).Err(); err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("response cache write failed")
		}
	}
}

func (c *RedisCache) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, key)
}
