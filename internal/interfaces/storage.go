package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/verba/internal/models"
)

// SettingsStorage persists the application settings record
type SettingsStorage interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
	Reset(ctx context.Context) (*models.Settings, error)
}

// LogFilter narrows log queries; zero values mean "no constraint"
type LogFilter struct {
	Level    models.LogLevel
	Category models.LogCategory
	JobID    string
	Limit    int
}

// LogStorage persists structured application log entries
type LogStorage interface {
	Append(ctx context.Context, entry *models.LogEntry) error
	Query(ctx context.Context, filter LogFilter) ([]models.LogEntry, error)
	Count(ctx context.Context) (int, error)
	// Prune removes entries older than cutoff and, when maxEntries > 0,
	// trims the store down to the newest maxEntries records.
	Prune(ctx context.Context, cutoff time.Time, maxEntries int) (int, error)
	Clear(ctx context.Context) error
}
