package settings

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/models"
)

// memorySettingsStorage is an in-memory SettingsStorage for service tests
type memorySettingsStorage struct {
	saved *models.Settings
}

func (m *memorySettingsStorage) Get(ctx context.Context) (*models.Settings, error) {
	if m.saved == nil {
		return models.NewDefaultSettings(), nil
	}
	copied := *m.saved
	return &copied, nil
}

func (m *memorySettingsStorage) Save(ctx context.Context, settings *models.Settings) error {
	copied := *settings
	m.saved = &copied
	return nil
}

func (m *memorySettingsStorage) Reset(ctx context.Context) (*models.Settings, error) {
	defaults := models.NewDefaultSettings()
	m.saved = defaults
	return defaults, nil
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestGetReturnsDefaultsInitially(t *testing.T) {
	svc := NewService(&memorySettingsStorage{}, arbor.NewLogger())

	current, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if current.BatchSize != 500 || !current.Translate {
		t.Errorf("unexpected defaults: %+v", current)
	}
}

func TestApplyMergesPartialUpdate(t *testing.T) {
	storage := &memorySettingsStorage{}
	svc := NewService(storage, arbor.NewLogger())
	ctx := context.Background()

	updated, err := svc.Apply(ctx, Update{
		BatchSize:      intPtr(100),
		TargetLanguage: strPtr("Spanish"),
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if updated.BatchSize != 100 || updated.TargetLanguage != "Spanish" {
		t.Errorf("unexpected updated settings: %+v", updated)
	}
	// Untouched fields keep their previous values
	if !updated.Translate || updated.ExportFormat != "csv" {
		t.Errorf("unexpected merge result: %+v", updated)
	}

	// Second partial update builds on the persisted state
	second, err := svc.Apply(ctx, Update{Translate: boolPtr(false)})
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if second.BatchSize != 100 || second.Translate {
		t.Errorf("expected accumulated settings, got %+v", second)
	}
}

func TestApplyValidation(t *testing.T) {
	tests := []struct {
		name   string
		update Update
	}{
		{"non-positive batch size", Update{BatchSize: intPtr(0)}},
		{"empty target language", Update{TargetLanguage: strPtr("")}},
		{"negative retention", Update{LogRetentionDays: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &memorySettingsStorage{}
			svc := NewService(storage, arbor.NewLogger())

			if _, err := svc.Apply(context.Background(), tt.update); err == nil {
				t.Error("expected validation error")
			}
			if storage.saved != nil {
				t.Error("rejected update must not persist")
			}
		})
	}
}

func TestReset(t *testing.T) {
	storage := &memorySettingsStorage{}
	svc := NewService(storage, arbor.NewLogger())
	ctx := context.Background()

	if _, err := svc.Apply(ctx, Update{BatchSize: intPtr(42)}); err != nil {
		t.Fatal(err)
	}

	restored, err := svc.Reset(ctx)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if restored.BatchSize != 500 {
		t.Errorf("expected defaults after reset, got %+v", restored)
	}
}
