package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vanshika/socialnet/internal/graph"
)

const healthCheckTimeout = 2 * time.Second

// HealthService defines behaviour for readiness checks.
type HealthService interface {
	Check(ctx context.Context) error
}

// GraphHealthService verifies graph connectivity as part of health checks.
// A nil client reports healthy, which is the case for the in-memory store.
type GraphHealthService struct {
	Client graph.Client
}

// Check implements the HealthService interface.
func (s GraphHealthService) Check(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthHandler answers 200 while the check succeeds and 503 otherwise.
func healthHandler(logger *slog.Logger, health HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := health.Check(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
