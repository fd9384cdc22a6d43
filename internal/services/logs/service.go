// -----------------------------------------------------------------------
// Log Service - Persisted application log feed with live subscriptions
// -----------------------------------------------------------------------

package logs

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

const defaultMaxEntries = 1000

// Service records structured application events to the log store, keeps the
// store capped at a maximum entry count, and fans new entries out to live
// subscribers. It writes through to the process logger so the same event
// appears in the console/file log.
type Service struct {
	storage    interfaces.LogStorage
	maxEntries int
	logger     arbor.ILogger

	mu          sync.Mutex
	subscribers map[chan models.LogEntry]struct{}
}

// NewService creates a log service over the given storage.
// maxEntries <= 0 falls back to the default cap of 1000.
func NewService(storage interfaces.LogStorage, maxEntries int, logger arbor.ILogger) *Service {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Service{
		storage:     storage,
		maxEntries:  maxEntries,
		logger:      logger,
		subscribers: make(map[chan models.LogEntry]struct{}),
	}
}

// Record persists one log entry, enforces the entry cap and notifies subscribers
func (s *Service) Record(ctx context.Context, level models.LogLevel, category models.LogCategory, message, jobID string) {
	entry := models.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Category:  category,
		Message:   message,
		JobID:     jobID,
	}

	if err := s.storage.Append(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist log entry")
		return
	}

	if count, err := s.storage.Count(ctx); err == nil && count > s.maxEntries {
		if _, err := s.storage.Prune(ctx, time.Time{}, s.maxEntries); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to enforce log entry cap")
		}
	}

	s.broadcast(entry)
	s.writeThrough(entry)
}

// Debug records a debug-level entry
func (s *Service) Debug(ctx context.Context, category models.LogCategory, message, jobID string) {
	s.Record(ctx, models.LogLevelDebug, category, message, jobID)
}

// Info records an info-level entry
func (s *Service) Info(ctx context.Context, category models.LogCategory, message, jobID string) {
	s.Record(ctx, models.LogLevelInfo, category, message, jobID)
}

// Warning records a warning-level entry
func (s *Service) Warning(ctx context.Context, category models.LogCategory, message, jobID string) {
	s.Record(ctx, models.LogLevelWarning, category, message, jobID)
}

// Error records an error-level entry
func (s *Service) Error(ctx context.Context, category models.LogCategory, message, jobID string) {
	s.Record(ctx, models.LogLevelError, category, message, jobID)
}

// Success records a success-level entry
func (s *Service) Success(ctx context.Context, category models.LogCategory, message, jobID string) {
	s.Record(ctx, models.LogLevelSuccess, category, message, jobID)
}

// Query returns stored entries matching the filter, newest first
func (s *Service) Query(ctx context.Context, filter interfaces.LogFilter) ([]models.LogEntry, error) {
	return s.storage.Query(ctx, filter)
}

// Clear removes every stored entry
func (s *Service) Clear(ctx context.Context) error {
	return s.storage.Clear(ctx)
}

// PruneOlderThan removes entries past the retention window
func (s *Service) PruneOlderThan(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed, err := s.storage.Prune(ctx, cutoff, s.maxEntries)
	if err != nil {
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}
	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Int("retention_days", retentionDays).
			Msg("Pruned expired log entries")
	}
	return removed, nil
}

// Export writes the current entries to a JSON or CSV file and returns its path
func (s *Service) Export(ctx context.Context, dir, format string) (string, error) {
	entries, err := s.storage.Query(ctx, interfaces.LogFilter{})
	if err != nil {
		return "", fmt.Errorf("failed to load logs for export: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case "", "json":
		path := filepath.Join(dir, fmt.Sprintf("logs_%s.json", timestamp))
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode logs: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write log export: %w", err)
		}
		return path, nil

	case "csv":
		path := filepath.Join(dir, fmt.Sprintf("logs_%s.csv", timestamp))
		file, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("failed to create log export: %w", err)
		}
		defer file.Close()

		w := csv.NewWriter(file)
		if err := w.Write([]string{"id", "timestamp", "level", "category", "message", "job_id"}); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
		for _, entry := range entries {
			row := []string{
				strconv.FormatUint(entry.ID, 10),
				entry.Timestamp.Format(time.RFC3339),
				string(entry.Level),
				string(entry.Category),
				entry.Message,
				entry.JobID,
			}
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("failed to write row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", err
		}
		return path, nil

	default:
		return "", fmt.Errorf("unsupported log export format: %s", format)
	}
}

// Subscribe registers a live feed channel. The returned cancel function
// unregisters and closes it. Slow subscribers drop entries rather than
// blocking the writer.
func (s *Service) Subscribe() (<-chan models.LogEntry, func()) {
	ch := make(chan models.LogEntry, 64)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Service) broadcast(entry models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}

// writeThrough mirrors the entry into the process logger
func (s *Service) writeThrough(entry models.LogEntry) {
	event := s.logger.Info()
	switch entry.Level {
	case models.LogLevelDebug:
		event = s.logger.Debug()
	case models.LogLevelWarning:
		event = s.logger.Warn()
	case models.LogLevelError:
		event = s.logger.Error()
	}

	event = event.Str("category", string(entry.Category))
	if entry.JobID != "" {
		event = event.Str("job_id", entry.JobID)
	}
	event.Msg(entry.Message)
}
