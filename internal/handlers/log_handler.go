package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
	"github.com/ternarybob/verba/internal/services/logs"
)

// LogHandler handles log query, export and clear requests
type LogHandler struct {
	logService *logs.Service
	config     *common.Config
	logger     arbor.ILogger
}

// NewLogHandler creates a new log handler
func NewLogHandler(logService *logs.Service, config *common.Config, logger arbor.ILogger) *LogHandler {
	return &LogHandler{
		logService: logService,
		config:     config,
		logger:     logger,
	}
}

// GetLogsHandler handles GET /api/logs?level=&category=&job_id=&limit=
func (h *LogHandler) GetLogsHandler(w http.ResponseWriter, r *http.Request) {
	filter := interfaces.LogFilter{
		Level:    models.LogLevel(r.URL.Query().Get("level")),
		Category: models.LogCategory(r.URL.Query().Get("category")),
		JobID:    r.URL.Query().Get("job_id"),
		Limit:    100,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	entries, err := h.logService.Query(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to query logs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  entries,
		"total": len(entries),
	})
}

type exportLogsRequest struct {
	Format string `json:"format"`
}

// ExportLogsHandler handles POST /api/logs/export
func (h *LogHandler) ExportLogsHandler(w http.ResponseWriter, r *http.Request) {
	var req exportLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	path, err := h.logService.Export(r.Context(), h.config.Export.Dir, req.Format)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"path":   path,
	})
}

// ClearLogsHandler handles DELETE /api/logs
func (h *LogHandler) ClearLogsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.logService.Clear(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to clear logs")
		return
	}
	WriteSuccess(w, "Logs cleared")
}
