package models

import (
	"time"
)

// Settings holds the user-adjustable application settings persisted across restarts.
// Values here override the static config file defaults for new jobs.
type Settings struct {
	ID              string    `json:"id" badgerhold:"key"` // Single well-known key
	BatchSize       int       `json:"batch_size"`
	Translate       bool      `json:"translate"`
	TargetLanguage  string    `json:"target_language"`
	ExportFormat    string    `json:"export_format"`
	ExportTemplate  string    `json:"export_template"`
	LogRetentionDays int      `json:"log_retention_days"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SettingsKey is the single storage key for the settings record
const SettingsKey = "app_settings"

// NewDefaultSettings returns settings defaults used before the first save
func NewDefaultSettings() *Settings {
	return &Settings{
		ID:               SettingsKey,
		BatchSize:        500,
		Translate:        true,
		TargetLanguage:   "Chinese",
		ExportFormat:     "csv",
		ExportTemplate:   "complete",
		LogRetentionDays: 30,
	}
}
