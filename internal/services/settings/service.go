// -----------------------------------------------------------------------
// Settings Service - Persisted application settings with validation
// -----------------------------------------------------------------------

package settings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/models"
)

// Update carries the fields a caller wants to change. Nil means "keep current".
type Update struct {
	BatchSize        *int    `json:"batch_size,omitempty"`
	Translate        *bool   `json:"translate,omitempty"`
	TargetLanguage   *string `json:"target_language,omitempty"`
	ExportFormat     *string `json:"export_format,omitempty"`
	ExportTemplate   *string `json:"export_template,omitempty"`
	LogRetentionDays *int    `json:"log_retention_days,omitempty"`
}

// Service mediates access to the persisted settings record
type Service struct {
	storage interfaces.SettingsStorage
	logger  arbor.ILogger
}

// NewService creates a settings service over the given storage
func NewService(storage interfaces.SettingsStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Get returns the current settings (defaults when nothing has been saved)
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	return s.storage.Get(ctx)
}

// Apply merges the update into the current settings, validates and persists
func (s *Service) Apply(ctx context.Context, update Update) (*models.Settings, error) {
	current, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	if update.BatchSize != nil {
		if *update.BatchSize <= 0 {
			return nil, fmt.Errorf("batch_size must be positive")
		}
		current.BatchSize = *update.BatchSize
	}
	if update.Translate != nil {
		current.Translate = *update.Translate
	}
	if update.TargetLanguage != nil {
		if *update.TargetLanguage == "" {
			return nil, fmt.Errorf("target_language cannot be empty")
		}
		current.TargetLanguage = *update.TargetLanguage
	}
	if update.ExportFormat != nil {
		current.ExportFormat = *update.ExportFormat
	}
	if update.ExportTemplate != nil {
		current.ExportTemplate = *update.ExportTemplate
	}
	if update.LogRetentionDays != nil {
		if *update.LogRetentionDays < 0 {
			return nil, fmt.Errorf("log_retention_days cannot be negative")
		}
		current.LogRetentionDays = *update.LogRetentionDays
	}

	if err := s.storage.Save(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("batch_size", current.BatchSize).
		Bool("translate", current.Translate).
		Str("target_language", current.TargetLanguage).
		Msg("Updated settings")

	return current, nil
}

// Reset restores the defaults and persists them
func (s *Service) Reset(ctx context.Context) (*models.Settings, error) {
	settings, err := s.storage.Reset(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Msg("Reset settings to defaults")
	return settings, nil
}
