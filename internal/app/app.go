// Package app wires configuration, storage, messaging, and HTTP transport
// into a runnable POS API server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tillhouse/pos/internal/auth"
	"github.com/tillhouse/pos/internal/config"
	"github.com/tillhouse/pos/internal/event"
	handlerhttp "github.com/tillhouse/pos/internal/handler/http"
	"github.com/tillhouse/pos/internal/repository/postgres"
	redisrepo "github.com/tillhouse/pos/internal/repository/redis"
	"github.com/tillhouse/pos/internal/service"
	"github.com/tillhouse/pos/migrations"
	"github.com/tillhouse/pos/pkg/database"
	"github.com/tillhouse/pos/pkg/health"
	"github.com/tillhouse/pos/pkg/httpclient"
	pkgkafka "github.com/tillhouse/pos/pkg/kafka"
	"github.com/tillhouse/pos/pkg/tracing"
)

// Version is the service version reported by the sync bridge. Overridden at
// build time via -ldflags.
var Version = "dev"

const startupTimeout = 10 * time.Second

// App holds the long-lived resources of the POS API server.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool          *pgxpool.Pool
	redisClient   *redis.Client
	kafkaProducer *pkgkafka.Producer
	tracerStop    func(context.Context) error

	httpServer *http.Server
}

// NewApp connects to all backing services and builds the dependency graph.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	tracerStop, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "pos-api",
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	database.RegisterPoolMetrics(pool, "pos-api")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var kafkaProducer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		kafkaProducer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	}
	producer := event.NewProducer(kafkaProducer, logger)

	userRepo := postgres.NewUserRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient, cfg.CartTTL)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)

	var syncClient *httpclient.CircuitBreakerClient
	if cfg.SyncUpstreamURL != "" {
		syncClient = httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("sync"),
			logger,
		)
	}
	syncService := service.NewSyncService(syncClient, cfg.SyncUpstreamURL, Version, logger)

	authService := service.NewAuthService(userRepo, shopRepo, jwtManager, logger)
	productService := service.NewProductService(productRepo, producer, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, producer, syncService, logger)
	cartService := service.NewCartService(cartRepo, productRepo, producer, logger)
	settingsService := service.NewSettingsService(settingRepo, producer, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if kafkaProducer != nil {
		healthHandler.Register("kafka", kafkaProducer.Ping)
	}

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		AuthHandler:     handlerhttp.NewAuthHandler(authService, logger),
		ProductHandler:  handlerhttp.NewProductHandler(productService, logger),
		OrderHandler:    handlerhttp.NewOrderHandler(orderService, logger),
		CartHandler:     handlerhttp.NewCartHandler(cartService, logger),
		SettingsHandler: handlerhttp.NewSettingsHandler(settingsService, logger),
		SyncHandler:     handlerhttp.NewSyncHandler(syncService, logger),
		HealthHandler:   healthHandler,

		JWTManager: jwtManager,
		Logger:     logger,

		Environment:        cfg.Environment,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		SyncAPIKey:         cfg.SyncAPIKey,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redisClient:   redisClient,
		kafkaProducer: kafkaProducer,
		tracerStop:    tracerStop,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails. It always attempts a graceful shutdown before returning.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.httpServer.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		a.Shutdown()
		return nil
	}
}

// Shutdown drains in-flight HTTP requests and closes all resources.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown failed", slog.String("error", err.Error()))
	}

	if a.tracerStop != nil {
		if err := a.tracerStop(ctx); err != nil {
			a.logger.Error("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}

	if a.kafkaProducer != nil {
		if err := a.kafkaProducer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", slog.String("error", err.Error()))
		}
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close failed", slog.String("error", err.Error()))
	}
	a.pool.Close()

	a.logger.Info("shutdown complete")
}
