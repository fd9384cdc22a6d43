package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/verba/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - live log feed
	mux.HandleFunc("/ws/logs", s.app.WSHandler.StreamLogsHandler)

	// API routes - Jobs (batch processing)
	mux.HandleFunc("/api/jobs", s.handleJobsRoute)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - Logs
	mux.HandleFunc("/api/logs", s.handleLogsRoute)
	mux.HandleFunc("/api/logs/export", s.app.LogHandler.ExportLogsHandler)

	// API routes - Settings
	mux.HandleFunc("/api/settings", s.handleSettingsRoute)
	mux.HandleFunc("/api/settings/reset", s.app.SettingsHandler.ResetSettingsHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.notFoundHandler)

	return mux
}

// handleJobsRoute dispatches /api/jobs by method
func (s *Server) handleJobsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:  s.app.JobHandler.ListJobsHandler,
		http.MethodPost: s.app.JobHandler.CreateJobHandler,
	})
}

// handleJobRoutes routes /api/jobs/{id} and its subpaths
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	if len(parts) == 0 || parts[0] == "" {
		s.notFoundHandler(w, r)
		return
	}
	jobID := parts[0]

	// GET /api/jobs/{id}
	if len(parts) == 1 {
		if !handlers.RequireMethod(w, r, http.MethodGet) {
			return
		}
		s.app.JobHandler.GetJobHandler(w, r, jobID)
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "results":
			if !handlers.RequireMethod(w, r, http.MethodGet) {
				return
			}
			s.app.JobHandler.GetJobResultsHandler(w, r, jobID)
			return
		case "control":
			if !handlers.RequireMethod(w, r, http.MethodPost) {
				return
			}
			s.app.JobHandler.ControlJobHandler(w, r, jobID)
			return
		case "export":
			if !handlers.RequireMethod(w, r, http.MethodPost) {
				return
			}
			s.app.JobHandler.ExportJobHandler(w, r, jobID)
			return
		}
	}

	s.notFoundHandler(w, r)
}

// handleLogsRoute dispatches /api/logs by method
func (s *Server) handleLogsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet:    s.app.LogHandler.GetLogsHandler,
		http.MethodDelete: s.app.LogHandler.ClearLogsHandler,
	})
}

// handleSettingsRoute dispatches /api/settings by method
func (s *Server) handleSettingsRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet: s.app.SettingsHandler.GetSettingsHandler,
		http.MethodPut: s.app.SettingsHandler.UpdateSettingsHandler,
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	handlers.WriteError(w, http.StatusNotFound, "Not found")
}
