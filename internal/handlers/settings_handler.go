package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/services/settings"
)

// SettingsHandler handles persisted settings requests
type SettingsHandler struct {
	settingsService *settings.Service
	logger          arbor.ILogger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *settings.Service, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettingsHandler handles GET /api/settings
func (h *SettingsHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	current, err := h.settingsService.Get(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	WriteJSON(w, http.StatusOK, current)
}

// UpdateSettingsHandler handles PUT /api/settings with a partial update body
func (h *SettingsHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var update settings.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.settingsService.Apply(r.Context(), update)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

// ResetSettingsHandler handles POST /api/settings/reset
func (h *SettingsHandler) ResetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	restored, err := h.settingsService.Reset(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to reset settings")
		return
	}
	WriteJSON(w, http.StatusOK, restored)
}
