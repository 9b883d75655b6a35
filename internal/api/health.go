package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"snowtracker/internal/config"
)

// healthCheckTimeout bounds the dependency probe so a hung database cannot
// hang the health endpoint.
const healthCheckTimeout = 2 * time.Second

// Pinger probes a dependency's liveness. Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Commit   string `json:"commit,omitempty"`
	Database string `json:"database"`
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	db     Pinger
	build  config.BuildInfo
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db Pinger, build config.BuildInfo, l *slog.Logger) *HealthHandler {
	if l == nil {
		l = slog.Default()
	}
	return &HealthHandler{db: db, build: build, logger: l}
}

// Handle reports service health. A failing database probe degrades the
// response to 503 but still returns the body so operators see what failed.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := HealthStatus{
		Status:   "ok",
		Version:  h.build.Version,
		Commit:   h.build.Commit,
		Database: "ok",
	}
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "health check database probe failed", "error", err)
		status.Status = "degraded"
		status.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}

	JSON(w, r, code, status)
}
