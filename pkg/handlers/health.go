package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/database"
)

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	db      *database.DB
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *database.DB, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, version: version, logger: logger.Named("health")}
}

// Health reports service health including database reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("Database ping failed", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"version": h.version,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
