// -----------------------------------------------------------------------
// Job - Batch processing job with lifecycle state machine
// -----------------------------------------------------------------------

package models

import (
	"time"
)

// JobStatus represents the state of a batch processing job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal returns true if the status allows no further transitions
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// CanTransitionTo validates the job state machine:
// pending -> running <-> paused -> {completed, failed, cancelled}
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusPaused || next == JobStatusCompleted ||
			next == JobStatusFailed || next == JobStatusCancelled
	case JobStatusPaused:
		return next == JobStatusRunning || next == JobStatusCompleted ||
			next == JobStatusFailed || next == JobStatusCancelled
	default:
		return false
	}
}

// JobConfig is the closed set of per-job pipeline options, snapshot at creation
type JobConfig struct {
	BatchSize      int    `json:"batch_size"`      // Keywords per remote processing call (0 = service default)
	Translate      *bool  `json:"translate"`       // Invoke translation (nil = service default)
	TargetLanguage string `json:"target_language"` // Translation target language ("" = service default)
}

// JobProgress tracks job execution progress at file, batch and keyword granularity.
// Mutated only inside the registry's critical section, together with status and results.
type JobProgress struct {
	TotalFiles             int       `json:"total_files"`
	CompletedFiles         int       `json:"completed_files"`
	FailedFiles            int       `json:"failed_files"`
	TotalBatches           int       `json:"total_batches"`
	CompletedBatches       int       `json:"completed_batches"`
	FailedBatches          int       `json:"failed_batches"`
	TotalKeywords          int       `json:"total_keywords"`
	ProcessedKeywords      int       `json:"processed_keywords"`
	CurrentFile            string    `json:"current_file,omitempty"`
	CurrentBatch           int       `json:"current_batch"`
	ProcessingTime         string    `json:"processing_time"`
	EstimatedTimeRemaining string    `json:"estimated_time_remaining,omitempty"`
	LastUpdated            time.Time `json:"last_updated"`
}

// Job represents one orchestrated unit of batch work.
// Status, Progress and Results are always mutated together under the registry lock,
// so any reader sees a mutually consistent triple.
type Job struct {
	ID           string      `json:"id"`
	InputFolder  string      `json:"input_folder"`
	OutputFolder string      `json:"output_folder"`
	Status       JobStatus   `json:"status"`
	Progress     JobProgress `json:"progress"`
	Results      []JobResult `json:"results"`
	Error        string      `json:"error,omitempty"`
	Config       JobConfig   `json:"config"`
	CreatedAt    time.Time   `json:"created_at"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// JobSummary is the compact per-job entry returned by list operations
type JobSummary struct {
	ID           string      `json:"id"`
	Status       JobStatus   `json:"status"`
	InputFolder  string      `json:"input_folder"`
	OutputFolder string      `json:"output_folder"`
	CreatedAt    time.Time   `json:"created_at"`
	Progress     JobProgress `json:"progress"`
}

// Snapshot returns a deep copy of the job safe to hand to callers outside the lock
func (j *Job) Snapshot() *Job {
	copied := *j
	copied.Results = make([]JobResult, len(j.Results))
	copy(copied.Results, j.Results)
	return &copied
}

// Summary returns the compact list representation of the job
func (j *Job) Summary() JobSummary {
	return JobSummary{
		ID:           j.ID,
		Status:       j.Status,
		InputFolder:  j.InputFolder,
		OutputFolder: j.OutputFolder,
		CreatedAt:    j.CreatedAt,
		Progress:     j.Progress,
	}
}
