// sales/cache_fallback.go
package sales

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/vendadia/blingserver/pkg/blingclient"
)

// FallbackStore provides a resilient sales cache: Redis when healthy, a
// local in-memory store otherwise. Writes always land in the local store so
// a Redis outage degrades the cache instead of disabling it.
type FallbackStore struct {
	redisStore  *RedisStore
	localStore  *MemoryStore
	healthCheck func() bool
	logger      *zap.Logger
}

// NewFallbackStore creates a sales cache with Redis and local fallback.
func NewFallbackStore(redisClient redis.UniversalClient, prefix string, healthCheck func() bool, logger *zap.Logger) *FallbackStore {
	return &FallbackStore{
		redisStore:  NewRedisStore(redisClient, prefix),
		localStore:  NewMemoryStore(),
		healthCheck: healthCheck,
		logger:      logger,
	}
}

// Get tries Redis first when healthy, falling back to the local store.
func (s *FallbackStore) Get(ctx context.Context, key string) ([]blingclient.SalesOrder, error) {
	if s.healthCheck() {
		orders, err := s.redisStore.Get(ctx, key)
		if err == nil {
			return orders, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("redis cache read failed, using local cache", zap.Error(err))
		}
	}
	return s.localStore.Get(ctx, key)
}

// Set writes to the local store and, when healthy, to Redis.
func (s *FallbackStore) Set(ctx context.Context, key string, orders []blingclient.SalesOrder, ttl time.Duration) error {
	if err := s.localStore.Set(ctx, key, orders, ttl); err != nil {
		return err
	}
	if s.healthCheck() {
		if err := s.redisStore.Set(ctx, key, orders, ttl); err != nil {
			s.logger.Warn("redis cache write failed", zap.Error(err))
		}
	}
	return nil
}

// Delete invalidates the entry in both stores.
func (s *FallbackStore) Delete(ctx context.Context, key string) error {
	if err := s.localStore.Delete(ctx, key); err != nil {
		return err
	}
	if s.healthCheck() {
		if err := s.redisStore.Delete(ctx, key); err != nil {
			s.logger.Warn("redis cache delete failed", zap.Error(err))
		}
	}
	return nil
}
