package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SettingsStorage implements the SettingsStorage interface for Badger
type SettingsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSettingsStorage creates a new SettingsStorage instance
func NewSettingsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SettingsStorage {
	return &SettingsStorage{
		db:     db,
		logger: logger,
	}
}

// Get returns the persisted settings, falling back to defaults when no
// record has been saved yet
func (s *SettingsStorage) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.Store().Get(models.SettingsKey, &settings)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return models.NewDefaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// Save persists the settings record, stamping UpdatedAt
func (s *SettingsStorage) Save(ctx context.Context, settings *models.Settings) error {
	settings.ID = models.SettingsKey
	settings.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(models.SettingsKey, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Debug().
		Int("batch_size", settings.BatchSize).
		Bool("translate", settings.Translate).
		Msg("Saved settings")

	return nil
}

// Reset restores and persists the default settings
func (s *SettingsStorage) Reset(ctx context.Context) (*models.Settings, error) {
	defaults := models.NewDefaultSettings()
	if err := s.Save(ctx, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}
