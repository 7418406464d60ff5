package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	config "github.com/avatarctic/dashboard-cache/configs"
	"github.com/avatarctic/dashboard-cache/internal/application/services"
	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
	"github.com/avatarctic/dashboard-cache/internal/core/ports"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/health"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/memory"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/metrics"
	"github.com/avatarctic/dashboard-cache/internal/infrastructure/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	// cache traces are emitted at debug level
	if cfg.Cache.Debug && logger.GetLevel() < logrus.DebugLevel {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.WithFields(logrus.Fields{"backend": cfg.Cache.Backend, "prefix": cfg.Cache.KeyPrefix}).Info("Starting dashboard cache service...")

	cacheCfg := cache.Config{
		KeyPrefix:         cfg.Cache.KeyPrefix,
		DefaultTTL:        cfg.Cache.DefaultTTL,
		EnableCompression: cfg.Cache.EnableCompression,
		Debug:             cfg.Cache.Debug,
	}

	var (
		factory  services.CacheFactory
		checkers []ports.HealthChecker
	)
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		// Initialize Redis client
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()

		logger.Info("Connected to Redis successfully")

		opts := []redis.Option{
			redis.WithLogger(logger),
			redis.WithOpTimeout(cfg.Cache.OpTimeout),
			redis.WithScanCount(int64(cfg.Cache.ScanCount)),
			redis.WithSetRetries(uint64(cfg.Cache.SetRetries)),
		}
		if cfg.Cache.BreakerEnabled {
			failures := uint32(cfg.Cache.BreakerFailures)
			opts = append(opts, redis.WithCircuitBreaker(gobreaker.Settings{
				Name:        "redis-cache",
				Timeout:     cfg.Cache.BreakerTimeout,
				ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures },
				OnStateChange: func(name string, from, to gobreaker.State) {
					logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("cache circuit breaker state changed")
				},
			}))
		}
		factory = func(c cache.Config) (ports.Cache, error) {
			return redis.NewRedisCache(redisClient, c, opts...), nil
		}
		checkers = append(checkers, health.NewRedisHealthChecker(redisClient))
	default:
		factory = func(c cache.Config) (ports.Cache, error) {
			mc, err := memory.New(c,
				memory.WithMaxEntries(cfg.Cache.MaxEntries),
				memory.WithSweepInterval(cfg.Cache.SweepInterval),
				memory.WithLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			return mc, nil
		}
	}

	sharedCache, err := factory(cacheCfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache:", err)
	}
	defer sharedCache.Close()

	tenantCaches, err := services.NewTenantCaches(cacheCfg, factory, logger)
	if err != nil {
		logger.WithError(err).Warn("Tenant caches disabled")
	} else {
		defer tenantCaches.Close()
	}

	prometheus.MustRegister(metrics.NewCacheCollector(cfg.Cache.Backend, sharedCache))
	checkers = append(checkers, health.NewCacheHealthChecker("cache", sharedCache))

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		AdminScope:   cfg.Admin.Scope,
		Backend:      cfg.Cache.Backend,
	}

	deps := httpserver.ServerDeps{
		CacheAdmin:     services.NewCacheAdminService(sharedCache, tenantCaches, logger),
		HealthCheckers: checkers,
	}

	server := httpserver.NewServer(serverConfig, cfg.Admin.JWTSecret, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
