// -----------------------------------------------------------------------
// Execution Driver - Per-job pipeline loop with cooperative pause/stop
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

// runJob drives one job from running to a terminal state. Failures are item-
// and batch-scoped, never job-fatal: one malformed file or one failed remote
// call degrades the success rate without aborting unrelated work. The driver
// always reaches a terminal status, including on internal panics, and always
// releases its handle and control signals on exit.
func (r *Registry) runJob(jobID string) {
	ctx := context.Background()
	stopped := false

	defer func() {
		if rec := recover(); rec != nil {
			r.failJob(jobID, fmt.Sprintf("internal error: %v", rec))
			r.logger.Error().
				Str("job_id", jobID).
				Str("panic", fmt.Sprintf("%v", rec)).
				Msg("Job driver panicked")
		}
		r.releaseDriver(jobID)
	}()

	r.mu.Lock()
	job, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return
	}
	inputFolder := job.InputFolder
	outputFolder := job.OutputFolder
	opts, batchSize := r.resolveConfig(job.Config)
	r.mu.Unlock()

	files, err := r.scanner.Scan(ctx, inputFolder)
	if err != nil {
		r.failJob(jobID, fmt.Sprintf("failed to scan input folder: %v", err))
		r.logger.Error().Err(err).Str("job_id", jobID).Msg("Input scan failed")
		return
	}

	r.updateProgress(jobID, func(p *models.JobProgress) {
		p.TotalFiles = len(files)
	})

	r.logger.Info().
		Str("job_id", jobID).
		Int("file_count", len(files)).
		Msg("Processing input files")

	for fileIdx, path := range files {
		if r.waitWhilePaused(jobID) {
			stopped = true
			break
		}

		fileName := filepath.Base(path)
		r.updateProgress(jobID, func(p *models.JobProgress) {
			p.CurrentFile = fileName
			p.CurrentBatch = 0
		})

		r.logger.Info().
			Str("job_id", jobID).
			Int("file_index", fileIdx+1).
			Int("file_count", len(files)).
			Str("file", fileName).
			Msg("Processing file")

		records, err := r.reader.Read(ctx, path)
		if err != nil {
			r.appendResult(jobID, models.FileFailure(path, err.Error()), func(p *models.JobProgress) {
				p.FailedFiles++
			})
			r.logger.Warn().Err(err).Str("job_id", jobID).Str("file", fileName).Msg("File failed validation")
			continue
		}

		batches := splitBatches(records, batchSize)
		r.updateProgress(jobID, func(p *models.JobProgress) {
			p.TotalBatches += len(batches)
			p.TotalKeywords += len(records)
		})

		succeeded := make([]models.KeywordRecord, 0, len(records))

		for batchIdx, batch := range batches {
			if r.waitWhilePaused(jobID) {
				stopped = true
				break
			}

			r.updateProgress(jobID, func(p *models.JobProgress) {
				p.CurrentBatch = batchIdx + 1
			})

			processed, err := r.processor.ProcessBatch(ctx, batch, opts)
			if err != nil {
				r.appendResult(jobID, models.BatchFailure(path, batchIdx+1, err.Error()), func(p *models.JobProgress) {
					p.FailedBatches++
				})
				r.logger.Warn().Err(err).
					Str("job_id", jobID).
					Str("file", fileName).
					Int("batch", batchIdx+1).
					Msg("Batch processing failed")
				continue
			}

			succeeded = append(succeeded, processed...)
			r.appendBatchResults(jobID, processed)
		}

		if stopped {
			break
		}

		if len(succeeded) > 0 {
			if err := r.writer.Write(ctx, outputFolder, fileName, succeeded); err != nil {
				r.logger.Warn().Err(err).
					Str("job_id", jobID).
					Str("file", fileName).
					Msg("Failed to write processed output")
			}
		}

		r.completeFile(jobID, len(files))
	}

	r.finalizeJob(jobID, stopped || r.stopRequested(jobID))
}

// waitWhilePaused blocks in bounded increments while the job is paused.
// Returns true when a stop signal was observed.
func (r *Registry) waitWhilePaused(jobID string) bool {
	if r.stopRequested(jobID) {
		return true
	}
	for r.pauseRequested(jobID) && !r.stopRequested(jobID) {
		time.Sleep(r.pollInterval)
	}
	return r.stopRequested(jobID)
}

// resolveConfig merges per-job options with registry defaults.
// Callers must hold r.mu.
func (r *Registry) resolveConfig(cfg models.JobConfig) (interfaces.ProcessOptions, int) {
	opts := interfaces.ProcessOptions{
		Translate:      r.translate,
		TargetLanguage: r.targetLanguage,
	}
	if cfg.Translate != nil {
		opts.Translate = *cfg.Translate
	}
	if cfg.TargetLanguage != "" {
		opts.TargetLanguage = cfg.TargetLanguage
	}

	batchSize := r.batchSize
	if cfg.BatchSize > 0 {
		batchSize = cfg.BatchSize
	}
	return opts, batchSize
}

// updateProgress mutates the job's progress inside the registry critical section
func (r *Registry) updateProgress(jobID string, fn func(*models.JobProgress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	fn(&job.Progress)
	job.Progress.LastUpdated = r.clock()
}

// appendResult appends one result entry and applies a progress mutation atomically
func (r *Registry) appendResult(jobID string, result models.JobResult, fn func(*models.JobProgress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	job.Results = append(job.Results, result)
	if fn != nil {
		fn(&job.Progress)
	}
	job.Progress.LastUpdated = r.clock()
}

// appendBatchResults appends one success entry per processed record and
// advances the batch/keyword counters in the same critical section
func (r *Registry) appendBatchResults(jobID string, processed []models.KeywordRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	for _, record := range processed {
		job.Results = append(job.Results, models.SuccessResult(record))
	}
	job.Progress.CompletedBatches++
	job.Progress.ProcessedKeywords += len(processed)
	job.Progress.LastUpdated = r.clock()
}

// completeFile advances the completed-file counter and recomputes the
// elapsed time and the linear estimate of remaining time
func (r *Registry) completeFile(jobID string, totalFiles int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}

	job.Progress.CompletedFiles++

	if job.StartedAt != nil {
		elapsed := r.clock().Sub(*job.StartedAt)
		job.Progress.ProcessingTime = formatDuration(elapsed)

		if job.Progress.CompletedFiles > 0 {
			avgPerFile := elapsed / time.Duration(job.Progress.CompletedFiles)
			remaining := time.Duration(totalFiles-job.Progress.CompletedFiles) * avgPerFile
			job.Progress.EstimatedTimeRemaining = formatDuration(remaining)
		}
	}
	job.Progress.LastUpdated = r.clock()
}

// failJob moves the job to failed with an error message, if not already terminal
func (r *Registry) failJob(jobID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.IsTerminal() {
		return
	}
	job.Status = models.JobStatusFailed
	job.Error = message
	now := r.clock()
	job.CompletedAt = &now
	job.Progress.LastUpdated = now
}

// finalizeJob confirms the terminal status once the driver loop exits:
// cancelled when a stop was observed, failed when every file failed,
// completed otherwise. The stop flag is re-read under the lock: a Stop
// landing after the driver's last checkpoint has already set Cancelled,
// and finalize must not overwrite it with Completed.
func (r *Registry) finalizeJob(jobID string, stopped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}

	switch {
	case stopped || r.stopFlags[jobID]:
		job.Status = models.JobStatusCancelled
	case job.Progress.TotalFiles > 0 && job.Progress.FailedFiles == job.Progress.TotalFiles:
		job.Status = models.JobStatusFailed
		job.Error = "All files failed to process"
	default:
		job.Status = models.JobStatusCompleted
	}

	now := r.clock()
	job.CompletedAt = &now
	job.Progress.CurrentFile = ""
	job.Progress.LastUpdated = now

	r.logger.Info().
		Str("job_id", jobID).
		Str("status", string(job.Status)).
		Int("completed_files", job.Progress.CompletedFiles).
		Int("failed_files", job.Progress.FailedFiles).
		Msg("Job finished")
}

// splitBatches slices records into fixed-size batches preserving order
func splitBatches(records []models.KeywordRecord, batchSize int) [][]models.KeywordRecord {
	if len(records) == 0 {
		return nil
	}
	batches := make([][]models.KeywordRecord, 0, (len(records)+batchSize-1)/batchSize)
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// formatDuration renders a duration as "1h 2m 3s" style text for progress display
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
