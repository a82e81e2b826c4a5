// sales/cache_redis.go
package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vendadia/blingserver/pkg/blingclient"
)

// RedisStore implements Store using Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed sales cache.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// Get retrieves a cached day of orders.
func (s *RedisStore) Get(ctx context.Context, key string) ([]blingclient.SalesOrder, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached sales: %w", err)
	}

	var orders []blingclient.SalesOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached sales: %w", err)
	}
	return orders, nil
}

// Set stores a day of orders with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, orders []blingclient.SalesOrder, ttl time.Duration) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal sales for cache: %w", err)
	}

	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache sales: %w", err)
	}
	return nil
}

// Delete invalidates a cache entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached sales: %w", err)
	}
	return nil
}
