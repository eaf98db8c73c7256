package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed store. Capacity is governed by the server's maxmemory
// setting; with a noeviction policy a full server answers writes with an OOM error,
// which IsQuotaExceeded recognises.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379/0")
	KeyPrefix string // Prefix for all keys (default: "tlcache:")
}

const defaultRedisPrefix = "tlcache:"

// NewRedis creates a new Redis store with the given configuration.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisFromClient creates a Redis store from an existing Redis client.
func NewRedisFromClient(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}

	return &Redis{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis. redis.Nil reads as a miss; any other
// error is returned so callers can tell an absent key from an unreachable server.
func (r *Redis) Get(key string) (string, bool, error) {
	ctx := context.Background()
	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a value in Redis without expiration.
func (r *Redis) Set(key string, value string) error {
	ctx := context.Background()
	return r.client.Set(ctx, r.keyPrefix+key, value, 0).Err()
}

// Remove deletes a key from Redis.
func (r *Redis) Remove(key string) error {
	ctx := context.Background()
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping tests the Redis connection.
func (r *Redis) Ping() error {
	ctx := context.Background()
	return r.client.Ping(ctx).Err()
}

// Verify Redis implements Adapter
var _ Adapter = (*Redis)(nil)
