// Package main provides the entrypoint for the airlog ingest worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/api/handler"
	"github.com/airlog/airlog/internal/api/response"
	"github.com/airlog/airlog/internal/database"
	"github.com/airlog/airlog/internal/ingest"
	"github.com/airlog/airlog/internal/resilience"
	"github.com/airlog/airlog/internal/station"
	"github.com/airlog/airlog/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airlog-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().Str("build_time", BuildTime).Msg("starting airlog worker")

	// Worker also exposes health endpoint for Cloud Run
	port := getEnvOrDefault("APP_PORT", "8080")
	sourceName := getEnvOrDefault("INGEST_SOURCE", "pubsub")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := ingest.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ingest metrics")
	}

	stores, err := database.OpenStores(ctx, database.DriverFromEnv(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	registry := resilience.NewRegistry()
	guardCfg := resilience.DefaultGuardConfig(storeGuardName)
	guardCfg.Registry = registry

	stationService := station.NewService(station.ServiceConfig{
		Repository: station.NewResilientRepository(stores.Stations, guardCfg),
		BaseURL:    os.Getenv("PUBLIC_BASE_URL"),
		Logger:     log,
	})

	ingestHandler := ingest.NewHandler(stationService, log).WithMetrics(sourceName, metrics)

	source, err := newSource(ctx, sourceName, ingestHandler, log)
	if err != nil {
		log.Fatal().Err(err).Str("source", sourceName).Msg("failed to create ingest source")
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      healthRouter(sourceName, ingestHandler, stationService, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start health check server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start ingest loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("source", sourceName).Msg("ingest source stopped")
		}
	}()

	// Wait for interrupt signal or a failed source
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	log.Info().Msg("shutting down worker")
	cancel()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn().Msg("ingest source did not stop in time")
	}
	if err := source.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close ingest source")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	stats := ingestHandler.Stats()
	log.Info().
		Int64("received", stats.Received).
		Int64("appended", stats.Appended).
		Int64("rejected", stats.Rejected).
		Int64("failed", stats.Failed).
		Msg("worker stopped")
}

func newSource(ctx context.Context, name string, ingestHandler *ingest.Handler, log zerolog.Logger) (ingest.Source, error) {
	switch name {
	case "pubsub":
		return ingest.NewPubSubSource(ctx, ingest.PubSubConfig{
			ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
			SubscriptionName: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "airlog-records"),
			Logger:           log,
		}, ingestHandler)

	case "mqtt":
		port, err := strconv.Atoi(getEnvOrDefault("MQTT_PORT", "1883"))
		if err != nil {
			return nil, errors.New("MQTT_PORT must be an integer")
		}
		return ingest.NewMQTTSource(ingest.MQTTConfig{
			Broker:   getEnvOrDefault("MQTT_BROKER", "localhost"),
			Port:     port,
			ClientID: getEnvOrDefault("MQTT_CLIENT_ID", "airlog-worker"),
			Topic:    getEnvOrDefault("MQTT_TOPIC", "airlog/stations/+/records"),
			Logger:   log,
		}, ingestHandler), nil

	default:
		return nil, errors.New("INGEST_SOURCE must be pubsub or mqtt")
	}
}

// storeGuardName names the circuit breaker around the station store.
const storeGuardName = "station-store"

// healthRouter serves the worker's probes on the internal port.
func healthRouter(source string, ingestHandler *ingest.Handler, stationService *station.Service, registry *resilience.Registry) http.Handler {
	ops := handler.NewOpsHandler(Version, BuildTime, stationService, registry)

	r := chi.NewRouter()
	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/status", ops.SystemStatus)
	r.Get("/ingest/stats", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"source": source,
			"stats":  ingestHandler.Stats(),
		}
		if h := registry.GetHealth(storeGuardName); h != nil {
			body["storeCircuit"] = h.CircuitState.String()
		}
		response.JSON(w, r, http.StatusOK, body)
	})
	return r
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
