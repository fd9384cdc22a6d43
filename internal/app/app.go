package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verba/internal/common"
	"github.com/ternarybob/verba/internal/handlers"
	"github.com/ternarybob/verba/internal/interfaces"
	"github.com/ternarybob/verba/internal/jobs"
	"github.com/ternarybob/verba/internal/services/deepseek"
	"github.com/ternarybob/verba/internal/services/export"
	"github.com/ternarybob/verba/internal/services/files"
	"github.com/ternarybob/verba/internal/services/logs"
	"github.com/ternarybob/verba/internal/services/settings"
	badgerstorage "github.com/ternarybob/verba/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB              *badgerstorage.BadgerDB
	SettingsStorage interfaces.SettingsStorage
	LogStorage      interfaces.LogStorage

	LogService      *logs.Service
	SettingsService *settings.Service
	ExportService   *export.Service
	Registry        *jobs.Registry

	JobHandler      *handlers.JobHandler
	LogHandler      *handlers.LogHandler
	SettingsHandler *handlers.SettingsHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler

	scheduler *cron.Cron
}

// New wires the storage, services, job registry and handlers together
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstorage.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:          cfg,
		Logger:          logger,
		DB:              db,
		SettingsStorage: badgerstorage.NewSettingsStorage(db, logger),
		LogStorage:      badgerstorage.NewLogStorage(db, logger),
	}

	a.LogService = logs.NewService(a.LogStorage, cfg.Logs.MaxEntries, logger)
	a.SettingsService = settings.NewService(a.SettingsStorage, logger)
	a.ExportService = export.NewService(cfg.Export.Dir, logger)

	// Persisted settings take precedence over the static config for job defaults
	saved, err := a.SettingsService.Get(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	scanner := files.NewScanner(logger)
	reader := files.NewReader(logger)
	processor := deepseek.NewClient(&cfg.DeepSeek, logger)
	writer := export.NewWriter(logger)

	registry, err := jobs.NewRegistry(scanner, reader, processor, writer, logger, jobs.Options{
		BatchSize:         saved.BatchSize,
		PausePollInterval: cfg.Processing.PausePollInterval,
		Translate:         saved.Translate,
		TargetLanguage:    saved.TargetLanguage,
		Spawn: func(fn func()) {
			common.SafeGo(logger, "job-driver", fn)
		},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize job registry: %w", err)
	}
	a.Registry = registry

	a.JobHandler = handlers.NewJobHandler(registry, a.ExportService, a.LogService, logger)
	a.LogHandler = handlers.NewLogHandler(a.LogService, cfg, logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.SettingsService, logger)
	a.StatusHandler = handlers.NewStatusHandler(registry, logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.LogService, logger)

	if err := a.startScheduler(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Msg("Application initialized")
	return a, nil
}

// startScheduler registers the periodic log pruning job
func (a *App) startScheduler() error {
	a.scheduler = cron.New()

	_, err := a.scheduler.AddFunc(a.Config.Logs.PruneSchedule, func() {
		ctx := context.Background()
		current, err := a.SettingsService.Get(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Log pruning skipped: failed to load settings")
			return
		}
		if _, err := a.LogService.PruneOlderThan(ctx, current.LogRetentionDays); err != nil {
			a.Logger.Warn().Err(err).Msg("Log pruning failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule log pruning: %w", err)
	}

	a.scheduler.Start()
	a.Logger.Debug().Str("schedule", a.Config.Logs.PruneSchedule).Msg("Log pruning scheduled")
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}
