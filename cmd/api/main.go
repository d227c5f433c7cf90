// Package main is the entry point for the book-search-service API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"book-search-service/internal/app/service"
	"book-search-service/internal/config"
	"book-search-service/internal/domain"
	"book-search-service/internal/infra/postgres"
	"book-search-service/internal/infra/postgres/migrations"
	rediscache "book-search-service/internal/infra/redis"
	"book-search-service/internal/infra/vector"
	"book-search-service/internal/job"
	"book-search-service/internal/logger"
	"book-search-service/internal/transport/httpserver"
	"book-search-service/internal/validator"
	"book-search-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting book-search-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repository
	repo := postgres.NewRepository(db)

	// Create vector service client
	vectorClient := vector.New(
		vector.ClientConfig{
			BaseURL: cfg.Vector.BaseURL,
			Timeout: cfg.Vector.Timeout,
			Retry: vector.RetryConfig{
				MaxAttempts: cfg.Vector.Retry.MaxAttempts,
				WaitTime:    cfg.Vector.Retry.WaitTime,
				MaxWaitTime: cfg.Vector.Retry.MaxWaitTime,
			},
			CB: vector.CBConfig{
				MaxRequests:  cfg.Vector.CB.MaxRequests,
				Interval:     cfg.Vector.CB.Interval,
				Timeout:      cfg.Vector.CB.Timeout,
				FailureRatio: cfg.Vector.CB.FailureRatio,
			},
		},
		log.Logger,
	)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Create cache implementation (optional, based on config)
	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("result cache enabled",
			zap.Duration("search_ttl", cfg.Cache.SearchTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("result cache disabled")
	}

	// Create services
	searchSvc := service.NewSearchService(
		repo,
		vectorClient,
		cache,
		cfg.Cache.SearchTTL,
		cfg.Search.SemanticTimeout,
		log.Logger,
	)
	indexSvc := service.NewIndexService(
		repo,
		vectorClient,
		vectorClient,
		cfg.Index.BatchSize,
		log.Logger,
	)

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Logger)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
		},
		searchSvc,
		indexSvc,
		db,
		v,
		log.Logger,
	)

	// Start index scheduler with distributed locking
	scheduler := job.NewIndexScheduler(
		indexSvc,
		job.IndexJobConfig{
			Interval:  cfg.Index.Interval,
			Timeout:   cfg.Index.Timeout,
			OnStartup: cfg.Index.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start(cfg.Index.OnStartup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
