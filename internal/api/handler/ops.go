// Package handler provides HTTP handlers for the airlog API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/api/response"
	"github.com/airlog/airlog/internal/resilience"
)

// readyTimeout bounds the store ping made by the readiness check.
const readyTimeout = 2 * time.Second

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     Pinger
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. store and registry may be nil.
func NewOpsHandler(version, buildTime string, store Pinger, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready - answers 503 while the station
// store cannot be reached.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			logFromRequest(r).Warn().Err(err).Msg("readiness check failed")
			health.Status = models.HealthStatusFail
			health.Details = map[string]any{"store": "unreachable"}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - circuit breaker state of each guarded store.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Version:    h.version,
		Subsystems: []models.SubsystemStatus{},
	}

	if h.registry != nil {
		for _, health := range h.registry.GetAllHealth() {
			sub := toSubsystemStatus(health)
			status.Subsystems = append(status.Subsystems, sub)
			status.Status = worse(status.Status, sub.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func toSubsystemStatus(h *resilience.Health) models.SubsystemStatus {
	sub := models.SubsystemStatus{
		Name:                h.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        h.CircuitState.String(),
		ConsecutiveFailures: h.Counts.ConsecutiveFailures,
	}

	switch {
	case h.IsUnhealthy():
		sub.Status = models.HealthStatusFail
	case h.IsDegraded():
		sub.Status = models.HealthStatusDegraded
	}

	if h.LastSuccessAt != nil {
		ts := models.Timestamp(*h.LastSuccessAt)
		sub.LastSuccessAt = &ts
	}
	if h.LastFailureAt != nil {
		ts := models.Timestamp(*h.LastFailureAt)
		sub.LastFailureAt = &ts
	}
	if h.LastError != "" {
		msg := h.LastError
		sub.Message = &msg
	}
	return sub
}

func worse(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
