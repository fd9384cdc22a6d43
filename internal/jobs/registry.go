// -----------------------------------------------------------------------
// Job Registry - Authoritative job map, state machine and control signals
// -----------------------------------------------------------------------

package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

// Options tunes registry behavior. Zero values fall back to defaults; the
// Clock and Spawn seams exist so tests can run the driver deterministically.
type Options struct {
	BatchSize         int           // Keywords per remote processing call (default 500)
	PausePollInterval time.Duration // Bounded sleep between pause/stop checks (default 1s)
	Translate         bool          // Default translation toggle for jobs that do not set one
	TargetLanguage    string        // Default translation target language

	Clock func() time.Time // Defaults to time.Now
	Spawn func(func())     // Defaults to `go fn()`
}

// Registry owns the job map and all lifecycle transitions. One mutex guards
// every mutation of a job's status, progress and results, so readers always
// observe a consistent triple. Control signals and driver handles exist only
// while a job has an active driver and are removed on every driver exit path.
type Registry struct {
	mu         sync.Mutex
	jobs       map[string]*models.Job
	active     map[string]struct{}
	stopFlags  map[string]bool
	pauseFlags map[string]bool

	scanner   interfaces.Scanner
	reader    interfaces.ItemReader
	processor interfaces.BatchProcessor
	writer    interfaces.OutputWriter

	batchSize      int
	pollInterval   time.Duration
	translate      bool
	targetLanguage string

	clock  func() time.Time
	spawn  func(func())
	logger arbor.ILogger
}

// NewRegistry creates a job registry bound to the pipeline collaborators
func NewRegistry(scanner interfaces.Scanner, reader interfaces.ItemReader, processor interfaces.BatchProcessor, writer interfaces.OutputWriter, logger arbor.ILogger, opts Options) (*Registry, error) {
	if scanner == nil {
		return nil, fmt.Errorf("scanner cannot be nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.PausePollInterval <= 0 {
		opts.PausePollInterval = 1 * time.Second
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "Chinese"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) { go fn() }
	}

	r := &Registry{
		jobs:           make(map[string]*models.Job),
		active:         make(map[string]struct{}),
		stopFlags:      make(map[string]bool),
		pauseFlags:     make(map[string]bool),
		scanner:        scanner,
		reader:         reader,
		processor:      processor,
		writer:         writer,
		batchSize:      opts.BatchSize,
		pollInterval:   opts.PausePollInterval,
		translate:      opts.Translate,
		targetLanguage: opts.TargetLanguage,
		clock:          opts.Clock,
		spawn:          opts.Spawn,
		logger:         logger,
	}

	logger.Info().
		Int("batch_size", r.batchSize).
		Dur("pause_poll_interval", r.pollInterval).
		Msg("Job registry initialized")

	return r, nil
}

// Create allocates a new pending job and returns its ID
func (r *Registry) Create(inputFolder, outputFolder string, config models.JobConfig) string {
	job := &models.Job{
		ID:           common.NewJobID(),
		InputFolder:  inputFolder,
		OutputFolder: outputFolder,
		Status:       models.JobStatusPending,
		Results:      []models.JobResult{},
		Config:       config,
		CreatedAt:    r.clock(),
	}
	job.Progress.LastUpdated = job.CreatedAt

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.stopFlags[job.ID] = false
	r.pauseFlags[job.ID] = false
	r.mu.Unlock()

	r.logger.Info().
		Str("job_id", job.ID).
		Str("input_folder", inputFolder).
		Msg("Created job")

	return job.ID
}

// Start transitions a pending job to running and spawns its execution driver.
// Returns false without mutation if the job is missing or not pending, which
// makes a double start structurally impossible.
func (r *Registry) Start(jobID string) bool {
	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status != models.JobStatusPending {
		r.mu.Unlock()
		r.logger.Warn().Str("job_id", jobID).Msg("Start rejected: job missing or not pending")
		return false
	}

	job.Status = models.JobStatusRunning
	now := r.clock()
	job.StartedAt = &now
	r.active[jobID] = struct{}{}
	r.mu.Unlock()

	r.spawn(func() { r.runJob(jobID) })

	r.logger.Info().Str("job_id", jobID).Msg("Started job")
	return true
}

// Pause suspends a running job; the driver observes the flag at its next checkpoint
func (r *Registry) Pause(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.Status != models.JobStatusRunning {
		return false
	}

	job.Status = models.JobStatusPaused
	r.pauseFlags[jobID] = true

	r.logger.Info().Str("job_id", jobID).Msg("Paused job")
	return true
}

// Resume continues a paused job
func (r *Registry) Resume(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.Status != models.JobStatusPaused {
		return false
	}

	job.Status = models.JobStatusRunning
	r.pauseFlags[jobID] = false

	r.logger.Info().Str("job_id", jobID).Msg("Resumed job")
	return true
}

// Stop requests cooperative cancellation of a running or paused job. The
// driver confirms the terminal state at its next checkpoint; an in-flight
// remote call is allowed to finish.
func (r *Registry) Stop(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || (job.Status != models.JobStatusRunning && job.Status != models.JobStatusPaused) {
		return false
	}

	job.Status = models.JobStatusCancelled
	r.stopFlags[jobID] = true

	r.logger.Info().Str("job_id", jobID).Msg("Stop requested for job")
	return true
}

// Status returns a consistent snapshot of the job, or false if unknown
func (r *Registry) Status(jobID string) (*models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.Snapshot(), true
}

// Results returns a copy of the job's current (possibly partial) results
func (r *Registry) Results(jobID string) ([]models.JobResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}

	results := make([]models.JobResult, len(job.Results))
	copy(results, job.Results)
	return results, true
}

// List returns a summary for every known job
func (r *Registry) List() []models.JobSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]models.JobSummary, 0, len(r.jobs))
	for _, job := range r.jobs {
		summaries = append(summaries, job.Summary())
	}
	return summaries
}

// ActiveCount returns the number of jobs with a live execution driver
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// stopRequested reports whether the job's stop signal is set
func (r *Registry) stopRequested(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopFlags[jobID]
}

// pauseRequested reports whether the job's pause signal is set
func (r *Registry) pauseRequested(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pauseFlags[jobID]
}

// releaseDriver removes the driver handle and control signals for a job.
// Called on every driver exit path; the job record itself stays queryable.
func (r *Registry) releaseDriver(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, jobID)
	delete(r.stopFlags, jobID)
	delete(r.pauseFlags, jobID)
}
