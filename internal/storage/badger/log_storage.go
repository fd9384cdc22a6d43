package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// LogStorage implements the LogStorage interface for Badger
type LogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewLogStorage creates a new LogStorage instance
func NewLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LogStorage {
	return &LogStorage{
		db:     db,
		logger: logger,
	}
}

// sortLogsDesc sorts entries newest first, breaking timestamp ties by key order
func sortLogsDesc(entries []models.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

// Append inserts one entry with an auto-incremented key
func (s *LogStorage) Append(ctx context.Context, entry *models.LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := s.db.Store().Insert(badgerhold.NextSequence(), entry); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// Query returns entries matching the filter, newest first.
// Level, category and job id filter in-memory; badgerhold cannot combine
// multiple field predicates with the limit semantics we want here.
func (s *LogStorage) Query(ctx context.Context, filter interfaces.LogFilter) ([]models.LogEntry, error) {
	var all []models.LogEntry
	if err := s.db.Store().Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	matched := make([]models.LogEntry, 0, len(all))
	for _, entry := range all {
		if filter.Level != "" && entry.Level != filter.Level {
			continue
		}
		if filter.Category != "" && entry.Category != filter.Category {
			continue
		}
		if filter.JobID != "" && entry.JobID != filter.JobID {
			continue
		}
		matched = append(matched, entry)
	}

	sortLogsDesc(matched)

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count returns the total number of stored entries
func (s *LogStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.LogEntry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return int(count), nil
}

// Prune removes entries older than cutoff, then trims the store down to the
// newest maxEntries records when maxEntries > 0. Returns the number removed.
func (s *LogStorage) Prune(ctx context.Context, cutoff time.Time, maxEntries int) (int, error) {
	var all []models.LogEntry
	if err := s.db.Store().Find(&all, nil); err != nil {
		return 0, fmt.Errorf("failed to load logs for pruning: %w", err)
	}

	sortLogsDesc(all)

	var doomed []models.LogEntry
	kept := 0
	for _, entry := range all {
		switch {
		case entry.Timestamp.Before(cutoff):
			doomed = append(doomed, entry)
		case maxEntries > 0 && kept >= maxEntries:
			doomed = append(doomed, entry)
		default:
			kept++
		}
	}

	for _, entry := range doomed {
		if err := s.db.Store().Delete(entry.ID, &models.LogEntry{}); err != nil {
			return 0, fmt.Errorf("failed to delete log entry %d: %w", entry.ID, err)
		}
	}

	if len(doomed) > 0 {
		s.logger.Debug().
			Int("removed", len(doomed)).
			Int("kept", kept).
			Msg("Pruned log entries")
	}

	return len(doomed), nil
}

// Clear removes every stored entry
func (s *LogStorage) Clear(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.LogEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	return nil
}
