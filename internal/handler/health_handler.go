package handler

import (
	"context"
	"net/http"
	"time"

	"product-service/internal/config"
	"product-service/internal/model"

	"github.com/rs/zerolog"
)

// pingTimeout bounds the database probe behind GET /health.
const pingTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of a successful health check.
type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// HealthHandler reports liveness together with database reachability.
type HealthHandler struct {
	pinger      Pinger
	environment config.Environment
	logger      zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pinger Pinger, environment config.Environment, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		pinger:      pinger,
		environment: environment,
		logger:      logger.With().Str("handler", "health").Logger(),
	}
}

// Check handles GET /health requests.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("database ping failed")
		writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{
			Error:      "Service unavailable",
			StatusCode: http.StatusServiceUnavailable,
			Detail:     "Database is not reachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Database:    "connected",
		Environment: string(h.environment),
		Version:     config.Version,
	})
}
