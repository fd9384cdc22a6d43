package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/jobs"
	"github.com/ternarybob/verba/internal/models"
	"github.com/ternarybob/verba/internal/services/export"
	"github.com/ternarybob/verba/internal/services/logs"
)

// JobHandler handles job-related API requests
type JobHandler struct {
	registry      *jobs.Registry
	exportService *export.Service
	logService    *logs.Service
	logger        arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(registry *jobs.Registry, exportService *export.Service, logService *logs.Service, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		registry:      registry,
		exportService: exportService,
		logService:    logService,
		logger:        logger,
	}
}

type createJobRequest struct {
	InputFolder  string           `json:"input_folder"`
	OutputFolder string           `json:"output_folder"`
	Config       models.JobConfig `json:"config"`
	Start        *bool            `json:"start,omitempty"` // Defaults to true
}

// CreateJobHandler handles POST /api/jobs: create a job and, unless the
// request opts out, start it immediately
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.InputFolder == "" || req.OutputFolder == "" {
		WriteError(w, http.StatusBadRequest, "Input and output folders are required")
		return
	}

	jobID := h.registry.Create(req.InputFolder, req.OutputFolder, req.Config)

	start := req.Start == nil || *req.Start
	if start && !h.registry.Start(jobID) {
		WriteError(w, http.StatusInternalServerError, "Failed to start job")
		return
	}

	h.logService.Info(r.Context(), models.LogCategoryTaskManagement,
		fmt.Sprintf("Batch processing job created for %s", req.InputFolder), jobID)

	status := "created"
	if start {
		status = "started"
	}
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status":        status,
		"message":       "Batch processing " + status,
		"job_id":        jobID,
		"input_folder":  req.InputFolder,
		"output_folder": req.OutputFolder,
	})
}

type controlJobRequest struct {
	Action string `json:"action"`
}

// ControlJobHandler handles POST /api/jobs/{id}/control with an action of
// pause, resume, start or stop. Unknown jobs map to 404, invalid actions to
// 400 and rejected transitions to 409.
func (h *JobHandler) ControlJobHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, ok := h.registry.Status(jobID); !ok {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	var req controlJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ok bool
	switch req.Action {
	case "start":
		ok = h.registry.Start(jobID)
	case "pause":
		ok = h.registry.Pause(jobID)
	case "resume":
		ok = h.registry.Resume(jobID)
	case "stop":
		ok = h.registry.Stop(jobID)
	default:
		WriteError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	if !ok {
		WriteError(w, http.StatusConflict, fmt.Sprintf("Cannot %s job in its current state", req.Action))
		return
	}

	h.logService.Info(r.Context(), models.LogCategoryTaskManagement,
		fmt.Sprintf("Job %s requested", req.Action), jobID)

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Job %s succeeded", req.Action),
		"job_id":  jobID,
		"action":  req.Action,
	})
}

// GetJobHandler handles GET /api/jobs/{id}: a consistent job snapshot
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := h.registry.Status(jobID)
	if !ok {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// GetJobResultsHandler handles GET /api/jobs/{id}/results: the job's
// current, possibly partial, result entries
func (h *JobHandler) GetJobResultsHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	results, ok := h.registry.Results(jobID)
	if !ok {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  jobID,
		"results": results,
		"total":   len(results),
	})
}

// ListJobsHandler handles GET /api/jobs: summaries for every known job
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	summaries := h.registry.List()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  summaries,
		"total": len(summaries),
	})
}

type exportJobRequest struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Template string `json:"template"`
}

// ExportJobHandler handles POST /api/jobs/{id}/export: writes the job's
// successfully processed keywords to a file in the configured format
func (h *JobHandler) ExportJobHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	results, ok := h.registry.Results(jobID)
	if !ok {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	var req exportJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Filename == "" {
		req.Filename = jobID
	}

	records := make([]models.KeywordRecord, 0, len(results))
	for _, result := range results {
		if result.Keyword != nil {
			records = append(records, *result.Keyword)
		}
	}
	if len(records) == 0 {
		WriteError(w, http.StatusBadRequest, "Job has no processed keywords to export")
		return
	}

	path, err := h.exportService.Export(records, req.Filename, export.Options{
		Format:   req.Format,
		Template: req.Template,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logService.Success(r.Context(), models.LogCategorySystem,
		fmt.Sprintf("Exported %d keywords to %s", len(records), path), jobID)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"job_id":  jobID,
		"path":    path,
		"records": len(records),
	})
}
