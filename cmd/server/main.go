package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cartwise/cart-optimizer/config"
	"github.com/cartwise/cart-optimizer/internal/catalog"
	"github.com/cartwise/cart-optimizer/internal/handlers"
	"github.com/cartwise/cart-optimizer/internal/middleware"
	"github.com/cartwise/cart-optimizer/internal/optimizer"
	"github.com/cartwise/cart-optimizer/internal/pricing"
	"github.com/cartwise/cart-optimizer/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting cart optimizer service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	catalogProvider, closeCatalog, err := buildCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build store catalog")
	}
	defer closeCatalog()

	metrics := optimizer.NewMetricsRecorder()

	integrations, err := buildIntegrations(ctx, cfg, catalogProvider)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build store integrations")
	}

	priceSource := pricing.NewSource(
		catalogProvider,
		integrations,
		metrics,
		pricing.WithLookupTimeout(cfg.Pricing.LookupTimeout),
		pricing.WithConcurrency(cfg.Pricing.Concurrency),
	)

	resultCache, closeCache := buildCache(ctx, cfg, logger)
	defer closeCache()

	engineConfig := &optimizer.Config{
		CacheTTL:          cfg.Optimizer.CacheTTL,
		DefaultMaxStores:  cfg.Optimizer.DefaultMaxStores,
		MaxStoresLimit:    cfg.Optimizer.MaxStoresLimit,
		MaxCartItems:      cfg.Optimizer.MaxCartItems,
		QualityStores:     qualityStores(ctx, cfg, catalogProvider),
		QualityCategories: cfg.Optimizer.QualityCategories,
	}
	engine := optimizer.NewEngine(catalogProvider, priceSource, resultCache, engineConfig, metrics)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	setupRequestLogging(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(middleware.RateLimit(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	handlers.NewHandler(engine).RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

// buildCatalog returns the store catalog provider: Postgres-backed when a
// database URL is configured, otherwise the static list from config.
func buildCatalog(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (catalog.Provider, func(), error) {
	if cfg.Catalog.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		provider, err := catalog.NewPostgresProvider(ctx, pool, cfg.Catalog.DefaultDeliveryFee)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("Store catalog loaded from database")
		return provider, pool.Close, nil
	}

	stores := make([]catalog.Store, 0, len(cfg.Catalog.Stores))
	for _, s := range cfg.Catalog.Stores {
		stores = append(stores, catalog.Store{
			ID:          s.ID,
			Name:        s.Name,
			DeliveryFee: s.DeliveryFee,
			Quality:     s.Quality,
		})
	}
	logger.Info().Int("stores", len(stores)).Msg("Using static store catalog")
	return catalog.NewStaticProvider(stores, cfg.Catalog.DefaultDeliveryFee), func() {}, nil
}

// buildIntegrations wires one integration per catalog store: HTTP when the
// store has a configured endpoint, mock otherwise.
func buildIntegrations(ctx context.Context, cfg *config.Config, cat catalog.Provider) (map[string]pricing.StoreIntegration, error) {
	endpoints := make(map[string]string, len(cfg.Catalog.Stores))
	for _, s := range cfg.Catalog.Stores {
		if s.BaseURL != "" {
			endpoints[s.ID] = s.BaseURL
		}
	}

	stores, err := cat.Stores(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]pricing.StoreIntegration, len(stores))
	for _, s := range stores {
		if base, ok := endpoints[s.ID]; ok {
			out[s.ID] = pricing.NewHTTPIntegration(s.ID, base, cfg.Pricing.StoreRPS, cfg.Pricing.StoreBurst)
		} else {
			out[s.ID] = pricing.NewMockIntegration(s.ID)
		}
	}
	return out, nil
}

// buildCache returns the configured result cache backend.
func buildCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (optimizer.ResultCache, func()) {
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid Redis URL")
		}
		client := redis.NewClient(opts)
		logger.Info().Msg("Using Redis result cache")
		return optimizer.NewRedisCache(client), func() { client.Close() }
	}

	cache := optimizer.NewMemoryCache()
	cache.StartJanitor(ctx, time.Minute)
	logger.Info().Msg("Using in-memory result cache")
	return cache, func() {}
}

// qualityStores resolves the meal-plan allowlist: explicit config wins,
// otherwise every catalog store flagged as quality.
func qualityStores(ctx context.Context, cfg *config.Config, cat catalog.Provider) []string {
	if len(cfg.Optimizer.QualityStores) > 0 {
		return cfg.Optimizer.QualityStores
	}
	stores, err := cat.Stores(ctx)
	if err != nil {
		return nil
	}
	var out []string
	for _, s := range stores {
		if s.Quality {
			out = append(out, s.ID)
		}
	}
	return out
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "cart-optimizer").Logger()
	return &logger
}

func setupRequestLogging(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Msg("HTTP request")
	})
}
