package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/types"
)

// RedisCache wraps the Redis client. Its main job here is caching
// market-data responses so the polling loop does not burn the provider's
// rate limit.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheWithClient wraps an existing client. Used by tests.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping checks if Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Set sets a key-value pair with TTL
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// Del deletes one or more keys
func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// priceKey builds the cache key for a coin's price history request.
func priceKey(coin string, days int) string {
	return fmt.Sprintf("prices:%s:%dd", coin, days)
}

// GetPrices returns a cached price series, or nil on a miss.
func (r *RedisCache) GetPrices(ctx context.Context, coin string, days int) ([]types.PricePoint, error) {
	raw, err := r.client.Get(ctx, priceKey(coin, days)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read price cache: %w", err)
	}

	var points []types.PricePoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, fmt.Errorf("failed to decode cached prices: %w", err)
	}
	return points, nil
}

// SetPrices caches a price series with a TTL.
func (r *RedisCache) SetPrices(ctx context.Context, coin string, days int, points []types.PricePoint, ttl time.Duration) error {
	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to encode prices: %w", err)
	}
	return r.client.Set(ctx, priceKey(coin, days), raw, ttl).Err()
}
