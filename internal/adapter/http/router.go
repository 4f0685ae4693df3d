package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iho/vaultledger/internal/adapter/http/handler"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
	"github.com/iho/vaultledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PositionHandler    *handler.PositionHandler
	LiquidationHandler *handler.LiquidationHandler
	QuoteHandler       *handler.QuoteHandler
	HealthHandler      *handler.HealthHandler
	JWTManager         *auth.JWTManager
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Get("/quote", cfg.QuoteHandler.Get)

		// Positions
		r.Route("/positions", func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
			}
			r.Get("/", cfg.PositionHandler.List)
			r.Get("/{account}", cfg.PositionHandler.Get)
			r.Post("/{account}/deposit", cfg.PositionHandler.Deposit)
			r.Post("/{account}/borrow", cfg.PositionHandler.Borrow)
			r.Post("/{account}/repay", cfg.PositionHandler.Repay)
			r.Post("/{account}/withdraw", cfg.PositionHandler.Withdraw)
		})

		// Liquidations: operator only
		r.Route("/liquidations", func(r chi.Router) {
			if cfg.JWTManager != nil {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
				r.Use(middleware.RequireRole(domain.RoleOperator))
			}
			r.Post("/{account}", cfg.LiquidationHandler.Liquidate)
			r.Get("/{account}/audit", cfg.LiquidationHandler.ListAudit)
		})
	})

	return r
}
