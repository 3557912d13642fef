// Package main provides the entrypoint for the airlog API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/api"
	"github.com/airlog/airlog/internal/api/middleware"
	"github.com/airlog/airlog/internal/auth"
	"github.com/airlog/airlog/internal/database"
	"github.com/airlog/airlog/internal/resilience"
	"github.com/airlog/airlog/internal/station"
	"github.com/airlog/airlog/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airlog-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting airlog API")

	// Get configuration from environment
	port := getEnvOrDefault("APP_PORT", "8080")
	baseURL := getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:"+port)

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Open the configured store
	stores, err := database.OpenStores(ctx, database.DriverFromEnv(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	// Guard the station store with a circuit breaker reported on /v1/ops/status
	registry := resilience.NewRegistry()
	guardCfg := resilience.DefaultGuardConfig("station-store")
	guardCfg.Registry = registry
	stationRepo := station.NewResilientRepository(stores.Stations, guardCfg)

	stationService := station.NewService(station.ServiceConfig{
		Repository: stationRepo,
		BaseURL:    baseURL,
		Logger:     log,
	})
	log.Info().Str("driver", stores.Driver).Msg("station service initialized")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     getEnvOrDefault("JWT_ISSUER", baseURL),
		Audience:   getEnvOrDefault("JWT_AUDIENCE", serviceName),
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:    jwtService,
		UserRepo:      stores.Users,
		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", auth.DefaultAdminEmail),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Logger:        log,
	})
	if err := authService.EnsureAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reconcile admin account")
	}
	log.Info().Msg("auth service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		RequireTLS:     os.Getenv("REQUIRE_TLS") == "true",
		AuthService:    authService,
		StationService: stationService,
		Registry:       registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
