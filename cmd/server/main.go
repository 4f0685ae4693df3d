package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/iho/vaultledger/internal/adapter/gateway"
	httpAdapter "github.com/iho/vaultledger/internal/adapter/http"
	"github.com/iho/vaultledger/internal/adapter/http/handler"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/adapter/oracle"
	postgresRepo "github.com/iho/vaultledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/vaultledger/internal/adapter/repository/redis"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
	"github.com/iho/vaultledger/internal/infrastructure/config"
	"github.com/iho/vaultledger/internal/infrastructure/eventpublisher"
	"github.com/iho/vaultledger/internal/infrastructure/logger"
	"github.com/iho/vaultledger/internal/infrastructure/logging"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/infrastructure/postgres"
	"github.com/iho/vaultledger/internal/infrastructure/redis"
	"github.com/iho/vaultledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup loggers. zerolog covers the HTTP layer, slog covers the
	// workers and outbound adapters.
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLog := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx := context.Background()
	pair := cfg.Pair()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	positionRepo := postgresRepo.NewPositionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	quoteCache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	// Price oracle: an HTTP feed with a Redis-backed cache, or a pinned
	// price when no feed is configured.
	var priceOracle usecase.PriceOracle
	if cfg.OracleURL != "" {
		feed := oracle.NewHTTPOracle(&http.Client{Timeout: cfg.HTTPReadTimeout}, cfg.OracleURL, pair, cfg.PriceDecimals)
		priceOracle = oracle.NewCachedOracle(feed, quoteCache, cfg.OracleCacheTTL, appLog.Logger)
		log.Info().Str("url", cfg.OracleURL).Msg("using HTTP price oracle")
	} else {
		price, err := oracle.ParsePrice(cfg.OracleFixedPrice, cfg.PriceDecimals)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid ORACLE_FIXED_PRICE")
		}
		priceOracle = oracle.NewFixedOracle(price, cfg.PriceDecimals)
		log.Warn().Str("price", cfg.OracleFixedPrice).Msg("no oracle configured, using fixed price")
	}
	priceOracle = oracle.NewMeteredOracle(priceOracle, m)

	// Asset gateway: the custody service, or a logging stand-in.
	var assetGateway usecase.AssetGateway
	if cfg.CustodyURL != "" {
		assetGateway = gateway.NewHTTPGateway(&http.Client{Timeout: cfg.HTTPReadTimeout}, cfg.CustodyURL)
		log.Info().Str("url", cfg.CustodyURL).Msg("using HTTP custody gateway")
	} else {
		assetGateway = gateway.NewNoopGateway(appLog.Logger)
		log.Warn().Msg("no custody configured, transfers are logged only")
	}
	assetGateway = gateway.NewMeteredGateway(assetGateway, m)

	operators := auth.NewOperatorRegistry(cfg.OperatorIDs)

	// Initialize use cases
	positionUC := usecase.NewPositionUseCase(txManager, positionRepo, outboxRepo, priceOracle, assetGateway, idGen, pair)
	liquidationUC := usecase.NewLiquidationUseCase(txManager, positionRepo, outboxRepo, auditRepo, priceOracle, operators, idGen, pair)

	// Initialize handlers
	positionHandler := handler.NewPositionHandler(positionUC, retrier, m)
	liquidationHandler := handler.NewLiquidationHandler(liquidationUC, retrier, m)
	quoteHandler := handler.NewQuoteHandler(positionUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			log.Fatal().Msg("AUTH_ENABLED requires JWT_SECRET")
		}
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		log.Warn().Msg("authentication disabled")
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitPerSecond > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PositionHandler:    positionHandler,
		LiquidationHandler: liquidationHandler,
		QuoteHandler:       quoteHandler,
		HealthHandler:      healthHandler,
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
	})

	// Start the outbox publisher
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(appLog.Logger),
		Logger:     appLog.Logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("pair", pair.CollateralAsset+"/"+pair.DebtAsset).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
