// infrastructure/container.go
package infrastructure

import (
	"context"
	"crypto/rand"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/vendadia/blingserver/infrastructure/redis"
	"github.com/vendadia/blingserver/internal/auth"
	"github.com/vendadia/blingserver/internal/config"
	"github.com/vendadia/blingserver/internal/sales"
	"github.com/vendadia/blingserver/pkg/blingclient"
)

const salesRequestTimeout = 30 * time.Second

// Container provides application dependencies.
type Container struct {
	// Services
	AuthManager *auth.Manager
	Retriever   *sales.Retriever

	// Handlers
	AuthHandler  *auth.Handler
	SalesHandler *sales.Handler

	// Infrastructure
	SessionRegistry *auth.SessionRegistry
	RedisClient     goredis.UniversalClient
	RedisHealth     *redis.HealthChecker
	SalesCache      sales.Store
	BlingClient     *blingclient.Client

	logger *zap.Logger
}

// NewContainer creates and initializes the dependency container.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	container := &Container{logger: logger}

	// Sales cache: Redis with local fallback when configured, plain
	// in-memory otherwise.
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(redis.DefaultConfig(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
		redisHealth := redis.NewHealthChecker(ctx, redisClient, 30*time.Second)

		container.RedisClient = redisClient
		container.RedisHealth = redisHealth
		container.SalesCache = sales.NewFallbackStore(redisClient, cfg.Redis.KeyPrefix, redisHealth.IsHealthy, logger)
	} else {
		logger.Info("no REDIS_ADDR configured, using in-memory sales cache")
		container.SalesCache = sales.NewMemoryStore()
	}

	container.SessionRegistry = auth.NewSessionRegistry(sessionSecret(cfg, logger))

	container.AuthManager = auth.NewManager(auth.OAuthConfig{
		ClientID:     cfg.Bling.ClientID,
		ClientSecret: cfg.Bling.ClientSecret,
		RedirectURI:  cfg.Bling.RedirectURI,
		AuthURL:      cfg.Bling.AuthURL,
		TokenURL:     cfg.Bling.TokenURL,
	}, logger)

	container.BlingClient = blingclient.NewClient(cfg.Bling.APIBaseURL, salesRequestTimeout)
	container.Retriever = sales.NewRetriever(container.BlingClient, container.SalesCache, cfg.Cache.TTL, logger)

	container.AuthHandler = auth.NewHandler(container.AuthManager, container.SessionRegistry, logger)
	container.SalesHandler = sales.NewHandler(container.Retriever, logger)

	return container, nil
}

// sessionSecret uses the configured secret or generates an ephemeral one.
// An ephemeral secret invalidates cookies on restart, which matches the
// session-scoped credential model: nothing survives the process anyway.
func sessionSecret(cfg config.Config, logger *zap.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	logger.Info("no SESSION_SECRET configured, generating ephemeral session key")
	b := make([]byte, 32)
	rand.Read(b)
	return b
}

// Shutdown gracefully closes connections.
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.logger.Error("error closing Redis connection", zap.Error(err))
		}
	}
}
