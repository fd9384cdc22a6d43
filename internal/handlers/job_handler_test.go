package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/jobs"
	"github.com/ternarybob/verba/internal/models"
	"github.com/ternarybob/verba/internal/services/export"
	"github.com/ternarybob/verba/internal/services/files"
	"github.com/ternarybob/verba/internal/services/logs"
)

// memoryLogStorage backs the log service in handler tests
type memoryLogStorage struct {
	mu      sync.Mutex
	entries []models.LogEntry
}

func (m *memoryLogStorage) Append(ctx context.Context, entry *models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint64(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryLogStorage) Query(ctx context.Context, filter interfaces.LogFilter) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LogEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memoryLogStorage) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *memoryLogStorage) Prune(ctx context.Context, cutoff time.Time, maxEntries int) (int, error) {
	return 0, nil
}

func (m *memoryLogStorage) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// passthroughProcessor augments nothing; keeps handler tests off the network
type passthroughProcessor struct{}

func (passthroughProcessor) ProcessBatch(ctx context.Context, batch []models.KeywordRecord, opts interfaces.ProcessOptions) ([]models.KeywordRecord, error) {
	return batch, nil
}

func newTestJobHandler(t *testing.T) (*JobHandler, string, string) {
	t.Helper()

	logger := arbor.NewLogger()
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	content := "keyword,volume,cpc,difficulty\nseo tools,1000,2.5,10\n"
	err := os.WriteFile(filepath.Join(inputDir, "keywords.csv"), []byte(content), 0644)
	require.NoError(t, err, "Failed to write input fixture")

	registry, err := jobs.NewRegistry(
		files.NewScanner(logger),
		files.NewReader(logger),
		passthroughProcessor{},
		export.NewWriter(logger),
		logger,
		jobs.Options{Spawn: func(fn func()) { fn() }},
	)
	require.NoError(t, err, "Failed to create job registry")

	logService := logs.NewService(&memoryLogStorage{}, 100, logger)
	exportService := export.NewService(t.TempDir(), logger)

	return NewJobHandler(registry, exportService, logService, logger), inputDir, outputDir
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func createJob(t *testing.T, h *JobHandler, inputDir, outputDir string) string {
	t.Helper()
	body := `{"input_folder":"` + inputDir + `","output_folder":"` + outputDir + `"}`
	rec := postJSON(t, h.CreateJobHandler, "/api/jobs", body)
	require.Equal(t, http.StatusCreated, rec.Code, "Create should return 201: %s", rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "Failed to parse create response")
	jobID, ok := resp["job_id"].(string)
	require.True(t, ok, "Response should contain job_id")
	require.NotEmpty(t, jobID)
	return jobID
}

func TestCreateJobStartsAndCompletes(t *testing.T) {
	h, inputDir, outputDir := newTestJobHandler(t)
	jobID := createJob(t, h, inputDir, outputDir)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil)
	rec := httptest.NewRecorder()
	h.GetJobHandler(rec, req, jobID)

	require.Equal(t, http.StatusOK, rec.Code)
	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job), "Failed to parse job response")

	assert.Equal(t, models.JobStatusCompleted, job.Status, "Job should complete with synchronous spawn")
	assert.Equal(t, 1, job.Progress.TotalFiles)
	assert.Equal(t, 1, job.Progress.ProcessedKeywords)

	// Output file written by the pipeline
	_, err := os.Stat(filepath.Join(outputDir, "processed_keywords.csv"))
	assert.NoError(t, err, "Expected processed output file")
}

func TestCreateJobValidation(t *testing.T) {
	h, _, _ := newTestJobHandler(t)

	rec := postJSON(t, h.CreateJobHandler, "/api/jobs", `{"output_folder":"/out"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Missing input folder should be rejected")

	rec = postJSON(t, h.CreateJobHandler, "/api/jobs", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Malformed body should be rejected")
}

func TestControlJobErrorMapping(t *testing.T) {
	h, inputDir, outputDir := newTestJobHandler(t)

	// Unknown job -> 404
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/job_missing/control", strings.NewReader(`{"action":"pause"}`))
	h.ControlJobHandler(rec, req, "job_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code, "Unknown job should return 404")

	jobID := createJob(t, h, inputDir, outputDir)

	// Invalid action -> 400
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/jobs/"+jobID+"/control", strings.NewReader(`{"action":"restart"}`))
	h.ControlJobHandler(rec, req, jobID)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "Invalid action should return 400")

	// Pause of a completed job -> 409
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/jobs/"+jobID+"/control", strings.NewReader(`{"action":"pause"}`))
	h.ControlJobHandler(rec, req, jobID)
	assert.Equal(t, http.StatusConflict, rec.Code, "Rejected transition should return 409")
}

func TestGetJobResults(t *testing.T) {
	h, inputDir, outputDir := newTestJobHandler(t)
	jobID := createJob(t, h, inputDir, outputDir)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/results", nil)
	h.GetJobResultsHandler(rec, req, jobID)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		JobID   string             `json:"job_id"`
		Results []models.JobResult `json:"results"`
		Total   int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "Failed to parse results response")
	require.Equal(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].Keyword)
	assert.Equal(t, "seo tools", resp.Results[0].Keyword.Keyword)

	// Unknown job -> 404
	rec = httptest.NewRecorder()
	h.GetJobResultsHandler(rec, req, "job_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code, "Unknown job should return 404")
}

func TestListJobs(t *testing.T) {
	h, inputDir, outputDir := newTestJobHandler(t)
	createJob(t, h, inputDir, outputDir)
	createJob(t, h, inputDir, outputDir)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	h.ListJobsHandler(rec, req)

	var resp struct {
		Jobs  []models.JobSummary `json:"jobs"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "Failed to parse list response")
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Jobs, 2)
}

func TestExportJob(t *testing.T) {
	h, inputDir, outputDir := newTestJobHandler(t)
	jobID := createJob(t, h, inputDir, outputDir)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/"+jobID+"/export", strings.NewReader(`{"format":"csv","template":"basic"}`))
	h.ExportJobHandler(rec, req, jobID)

	require.Equal(t, http.StatusOK, rec.Code, "Export should succeed: %s", rec.Body.String())
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	path, _ := resp["path"].(string)
	require.NotEmpty(t, path, "Expected export path in response")

	_, err := os.Stat(path)
	assert.NoError(t, err, "Expected export file on disk")
}
