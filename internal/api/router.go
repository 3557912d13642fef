// Package api provides the HTTP API for airlog.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/api/handler"
	"github.com/airlog/airlog/internal/api/middleware"
	"github.com/airlog/airlog/internal/auth"
	"github.com/airlog/airlog/internal/resilience"
	"github.com/airlog/airlog/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	RequireTLS     bool
	AuthService    *auth.Service
	StationService *station.Service
	// Registry reports store circuit breaker state on /v1/ops/status. Optional.
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airlog-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))          // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))        // Panic recovery
	r.Use(chimiddleware.RealIP)                   // Real IP extraction
	r.Use(middleware.SecurityHeaders)             // HSTS, CSP, etc.
	r.Use(middleware.RequireTLS(cfg.RequireTLS))  // Reject plain HTTP behind a proxy
	r.Use(middleware.ContentTypeJSON)             // JSON content type
	r.Use(middleware.RequireJSON)                 // Reject non-JSON bodies

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.StationService, cfg.Registry)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	stationHandler := handler.NewStationHandler(cfg.StationService)

	authMiddleware := middleware.Auth(cfg.AuthService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)         // 10 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min
	writeRateLimit := middleware.RateLimitByUser(middleware.WriteRateLimit)     // 30 req/min per user

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		r.With(authRateLimit).Post("/user/login", authHandler.Login)

		r.With(standardRateLimit).Get("/records", stationHandler.ListRecords)

		r.Route("/stations", func(r chi.Router) {
			// Public reads
			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", stationHandler.ListStations)
				r.Get("/nearest", stationHandler.NearestStations)
				r.Get("/{stationId}", stationHandler.GetStation)
				r.Get("/{stationId}/records", stationHandler.ListStationRecords)
				r.Get("/{stationId}/summary", stationHandler.StationSummary)
			})

			// Mutations are restricted to admin users only
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(adminOnly)
				r.Use(writeRateLimit)
				r.Post("/", stationHandler.CreateStation)
				r.Patch("/{stationId}", stationHandler.UpdateStation)
				r.Delete("/{stationId}", stationHandler.DeleteStation)
				r.Post("/{stationId}/records", stationHandler.AppendRecord)
			})
		})
	})

	return r
}
