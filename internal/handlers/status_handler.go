package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/jobs"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	registry  *jobs.Registry
	startedAt time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(registry *jobs.Registry, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		registry:  registry,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service":     "verba",
		"status":      "running",
		"version":     common.GetVersion(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"active_jobs": h.registry.ActiveCount(),
		"total_jobs":  len(h.registry.List()),
	})
}
