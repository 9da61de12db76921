package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// PauseReporter reports whether the engine is currently paused.
type PauseReporter interface {
	IsPaused() bool
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	engine PauseReporter
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided engine and logger.
func NewHealthHandler(engine PauseReporter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{engine: engine, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is
// alive and whether the engine is accepting mutating operations.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"paused":    h.engine.IsPaused(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
