package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/semmidev/pgshelf/internal/adapter/database"
	"github.com/semmidev/pgshelf/internal/adapter/notifier"
	"github.com/semmidev/pgshelf/internal/adapter/storage"
	"github.com/semmidev/pgshelf/internal/config"
	"github.com/semmidev/pgshelf/internal/domain"
	"github.com/semmidev/pgshelf/internal/infrastructure/logger"
	"github.com/semmidev/pgshelf/internal/infrastructure/scheduler"
	"github.com/semmidev/pgshelf/internal/usecase"
)

// ErrBackupFailed is returned by Run when a cycle fails and
// backup.fail_on_error is set.
var ErrBackupFailed = errors.New("backup failed")

type App struct {
	config    config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	storage   domain.Storage
	backupUC  *usecase.Backup
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logger.New(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)

	db := database.NewPostgreSQL(cfg.Database)
	log.Infof("Database: %s", db)
	stor := initializeStorage(ctx, cfg, log)
	notifiers, err := initializeNotifiers(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	backupUC := usecase.NewBackup(db, stor, notifiers, log, usecase.Options{
		TempDir:   cfg.Backup.TempDir,
		KeepLocal: cfg.Backup.KeepLocal,
	})

	return &App{
		config:   cfg,
		logger:   log,
		storage:  stor,
		backupUC: backupUC,
	}, nil
}

// initializeStorage never fails: a backend that cannot be built is replaced by
// one that reports the error as an upload failure.
func initializeStorage(ctx context.Context, cfg config.Config, log *logger.Logger) domain.Storage {
	var (
		stor domain.Storage
		err  error
	)

	switch cfg.Storage.Type {
	case config.StorageS3:
		stor, err = storage.NewS3(ctx, cfg.Storage)
	case config.StorageGCS:
		stor, err = storage.NewGCS(ctx, cfg.Storage)
	case config.StorageAzure:
		stor, err = storage.NewAzure(cfg.Storage)
	case config.StorageGDrive:
		stor, err = storage.NewGDrive(ctx, cfg.Storage)
	case config.StorageLocal:
		stor, err = storage.NewLocal(cfg.Storage.LocalPath, cfg.Storage.Prefix)
	default:
		err = fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if err != nil {
		log.Errorf("Failed to initialize %s storage: %v", cfg.Storage.Type, err)
		return storage.Unavailable{Err: err}
	}

	log.Infof("✓ %s upload enabled: %s", cfg.Storage.Type, stor.Location(""))
	return stor
}

// initializeNotifiers fails on a notifier that cannot be built, so a
// configured channel is never dropped silently.
func initializeNotifiers(cfg config.Config, log *logger.Logger) ([]domain.Notifier, error) {
	var notifiers []domain.Notifier

	if cfg.SlackEnabled() {
		notifiers = append(notifiers, notifier.NewSlack(cfg.Slack))
		log.Infof("✓ Slack notifications enabled")
	}

	if cfg.TelegramEnabled() {
		tg, err := notifier.NewTelegram(cfg.Telegram, notifier.Messages{
			Success: cfg.Slack.SuccessMessage,
			Failure: cfg.Slack.FailureMessage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram: %w", err)
		}
		notifiers = append(notifiers, tg)
		log.Infof("✓ Telegram notifications enabled")
	}

	if len(notifiers) == 0 {
		log.Warnf("No notifier configured, results are only logged")
	}

	return notifiers, nil
}

// Run performs one backup cycle, or keeps running cycles on backup.schedule
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.config.Backup.Schedule == "" {
		return a.runOnce(ctx)
	}

	a.scheduler = scheduler.New(a.logger)
	if err := a.scheduler.AddJob(ctx, a.config.Backup.Schedule, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled backup ===")
		_, err := a.backupUC.Execute(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started: %s", a.config.Backup.Schedule)

	<-ctx.Done()
	return nil
}

func (a *App) runOnce(ctx context.Context) error {
	outcome, err := a.backupUC.Execute(ctx)
	if err != nil {
		return fmt.Errorf("report backup result: %w", err)
	}

	if !domain.Succeeded(outcome) && a.config.Backup.FailOnError {
		return fmt.Errorf("%w: %s", ErrBackupFailed, domain.Describe(outcome))
	}

	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if closer, ok := a.storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warnf("Failed to close storage client: %v", err)
		}
	}
	a.logger.Close()
}
