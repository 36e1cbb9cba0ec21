package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/engine"
	"github.com/publicvector/courtsearch/internal/profile"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	Registry      *profile.Registry
	Sessions      *engine.SessionManager
	SearchService SearchServiceInterface
	CacheService  CacheServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	if err := container.initRedis(); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	if err := container.initProfiles(); err != nil {
		return nil, fmt.Errorf("failed to load portal profiles: %w", err)
	}
	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return container, nil
}

// initRedis initializes the Redis client, degrading to memory-only caching
// when Redis is unreachable.
func (c *Container) initRedis() error {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	ctx := context.Background()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.Warn("Redis connection failed, running without cache")
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}
	return nil
}

// initProfiles registers the builtin portal profiles plus any JSON profiles
// found in the configured profile directory.
func (c *Container) initProfiles() error {
	c.Registry = profile.NewRegistry()

	dir := c.config.Search.ProfileDir
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("profile directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := profile.Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("profile %s: %w", entry.Name(), err)
		}
		if err := c.Registry.Register(p); err != nil {
			return err
		}
		c.logger.WithField("portal", p.Name).Info("Loaded portal profile")
	}
	return nil
}

// initServices initializes all services
func (c *Container) initServices() error {
	c.CacheService = NewCacheService(c.redisClient, c.config.Search.CacheTTL, c.logger)
	if mem, ok := c.CacheService.(*CacheService); ok {
		mem.StartCleanupRoutine()
	}

	diagDir := ""
	if c.config.Search.Diagnostics {
		diagDir = c.config.Search.DiagnosticsDir
	}
	c.Sessions = engine.NewSessionManager(c.config.Browser, diagDir, c.logger)

	orchestrator := engine.NewOrchestrator(c.Sessions, c.config.Browser.Headless, c.logger)

	searchService, err := NewSearchService(c.config.Search, c.Registry, orchestrator, c.Sessions, c.CacheService, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize search service: %w", err)
	}
	c.SearchService = searchService
	return nil
}

// Close closes all service connections
func (c *Container) Close() error {
	var errs []error

	if c.SearchService != nil {
		if err := c.SearchService.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close search service: %w", err))
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.redisClient != nil {
		ctx := context.Background()
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}
	if c.SearchService != nil {
		health["search"] = c.SearchService.Health()
	}
	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}
