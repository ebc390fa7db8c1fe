package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/services/sinks"
)

// Container holds all service dependencies
type Container struct {
	config        *config.Config
	logger        *logrus.Logger
	redisClient   *redis.Client
	cancelCleanup context.CancelFunc
	CacheService  CacheServiceInterface
	FeedFetcher   FeedFetcherInterface
	SinkProvider  SinkProviderInterface
	TenderService TenderServiceInterface
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	// Initialize Redis client
	container.initRedis()

	// Initialize services
	if err := container.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}

// initRedis initializes Redis client. The service runs without it, with an
// in-memory cache and no stream sink.
func (c *Container) initRedis() {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout+time.Second)
	defer cancel()

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running without cache")
		_ = c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}
}

// initServices initializes all services
func (c *Container) initServices() error {
	cache := NewCacheService(c.redisClient, c.config.Feed.CacheTTL, c.logger)
	cleanupCtx, cancel := context.WithCancel(context.Background())
	cache.StartCleanupRoutine(cleanupCtx, 5*time.Minute)
	c.cancelCleanup = cancel
	c.CacheService = cache

	var cacheForFeed CacheServiceInterface
	if c.config.Feed.CacheTTL > 0 {
		cacheForFeed = cache
	}
	c.FeedFetcher = NewFeedFetcher(c.config.Feed, cacheForFeed, c.logger)

	var writer KafkaWriter
	if len(c.config.Kafka.Brokers) > 0 && c.config.Ingest.QueueTarget != "" {
		writer = sinks.NewKafkaWriter(sinks.KafkaConfig{
			Brokers:      c.config.Kafka.Brokers,
			Topic:        c.config.Ingest.QueueTarget,
			GroupKey:     c.config.Ingest.QueueGroupKey,
			GroupSize:    c.config.Ingest.GroupSize,
			WriteTimeout: c.config.Kafka.WriteTimeout,
			RequiredAcks: c.config.Kafka.RequiredAcks,
		})
		c.logger.WithField("brokers", c.config.Kafka.Brokers).Info("Kafka writer configured")
	}
	c.SinkProvider = NewSinkProvider(c.config.Ingest, writer, c.redisClient)

	if c.config.Ingest.Sink == config.SinkStream && c.redisClient == nil {
		return fmt.Errorf("%w: stream sink needs Redis", ErrSinkUnavailable)
	}

	c.TenderService = NewTenderService(c.config.Ingest, c.config.Feed, c.FeedFetcher, c.SinkProvider, c.logger)
	return nil
}

// Close closes all service connections
func (c *Container) Close() error {
	var errs []error

	if c.cancelCleanup != nil {
		c.cancelCleanup()
	}

	if c.SinkProvider != nil {
		if err := c.SinkProvider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close sinks: %w", err))
		}
	}

	// Close Redis connection
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.CacheService != nil {
		health["cache"] = c.CacheService.Health()
	}
	if c.FeedFetcher != nil {
		health["feed"] = c.FeedFetcher.Health()
	}
	if c.TenderService != nil {
		health["ingest"] = c.TenderService.Health()
	}

	return health
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
