package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/contextcraft/contextcraft/internal/api"
	"github.com/contextcraft/contextcraft/internal/assistant"
	internalcache "github.com/contextcraft/contextcraft/internal/cache"
	"github.com/contextcraft/contextcraft/internal/providers"
	"github.com/contextcraft/contextcraft/pkg/config"
	"github.com/contextcraft/contextcraft/pkg/health"
	"github.com/contextcraft/contextcraft/pkg/logging"
	"github.com/contextcraft/contextcraft/pkg/metrics"
	"github.com/contextcraft/contextcraft/pkg/resilience"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "contextcraft-api",
		Version:     "1.0.0",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	// Optional Redis-backed response cache shared across instances
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("Redis health check failed: %v", err)
		}
		cancel()
		logger.Info("Redis connection established", "addr", cfg.RedisAddr())
	}

	alertManager := resilience.NewAlertManager()
	alertManager.AddHandler(resilience.NewLoggingAlertHandler())

	promMetrics := metrics.NewMetrics(nil)

	managerOpts := []resilience.ManagerOption{
		resilience.WithMetrics(promMetrics),
		resilience.WithAlertManager(alertManager),
	}
	if redisClient != nil {
		managerOpts = append(managerOpts, resilience.WithCache(
			internalcache.NewRedisCache(redisClient, &internalcache.Config{TTL: cfg.Recovery.CacheTTL}, logger),
		))
	}

	manager := resilience.NewManager(cfg.ToRecoveryConfig(), managerOpts...)

	// Simulated provider clients stand in for real SDK integrations
	registry := providers.NewRegistry()
	for _, name := range cfg.Providers.All() {
		registry.Add(providers.NewSimulatedClient(name, providers.SimulatedConfig{
			FailureRate: cfg.Providers.SimulatedFailureRate,
			Latency:     cfg.Providers.SimulatedLatency,
		}))
	}

	assistantService := assistant.NewService(registry, manager, logger, cfg.Providers.Primary, cfg.Providers.Fallbacks)

	healthService := health.NewService(logger)
	healthService.RegisterChecker("providers", health.NewCustomChecker("providers", func(ctx context.Context) (health.Status, string, error) {
		report := manager.GetHealthReport()
		switch report.Overall {
		case resilience.OverallCritical:
			return health.StatusUnhealthy, "no healthy providers", nil
		case resilience.OverallDegraded:
			return health.StatusDegraded, fmt.Sprintf("%d of %d providers healthy", report.HealthyCount, report.TotalCount), nil
		case resilience.OverallUnknown:
			return health.StatusHealthy, "no provider traffic yet", nil
		default:
			return health.StatusHealthy, "all providers healthy", nil
		}
	}))
	if redisClient != nil {
		healthService.RegisterChecker("redis", health.NewRedisChecker(redisClient, "redis"))
	}

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()

	healthMonitor := resilience.NewHealthMonitor(alertManager, manager.Tracker())
	healthMonitor.Start(monitorCtx)
	defer healthMonitor.Stop()

	router := api.NewRouter(cfg, logger, assistantService, manager, healthService, promMetrics)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting API server", "addr", server.Addr, "primary_provider", cfg.Providers.Primary)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
