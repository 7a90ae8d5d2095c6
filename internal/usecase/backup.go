package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/pgshelf/internal/domain"
)

type Backup struct {
	db        domain.Dumper
	storage   domain.Storage
	notifiers []domain.Notifier
	logger    Logger
	tempDir   string
	keepLocal bool
	now       func() time.Time
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type Options struct {
	TempDir   string
	KeepLocal bool
	Now       func() time.Time
}

func NewBackup(
	db domain.Dumper,
	storage domain.Storage,
	notifiers []domain.Notifier,
	logger Logger,
	opts Options,
) *Backup {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}

	return &Backup{
		db:        db,
		storage:   storage,
		notifiers: notifiers,
		logger:    logger,
		tempDir:   opts.TempDir,
		keepLocal: opts.KeepLocal,
		now:       opts.Now,
	}
}

// Execute runs one cycle: dump, upload when the dump succeeded, then report
// to every notifier. Step failures are returned as the Outcome; the error is
// only set when a notifier itself fails.
func (uc *Backup) Execute(ctx context.Context) (domain.Outcome, error) {
	start := uc.now()
	dbName := uc.db.GetName()
	filename := GenerateFilename(start)
	tempPath := filepath.Join(uc.tempDir, filename)

	if !uc.keepLocal {
		defer uc.removeTemp(tempPath)
	}

	outcome := uc.run(ctx, tempPath, filename)

	report := domain.Report{
		Filename:  filename,
		Database:  dbName,
		Location:  uc.storage.Location(filename),
		Outcome:   outcome,
		StartedAt: start,
		Duration:  uc.now().Sub(start).Round(time.Millisecond),
	}

	if domain.Succeeded(outcome) {
		uc.logger.Infof("[%s] Backup completed in %s: %s", dbName, report.Duration, report.Location)
	} else {
		uc.logger.Errorf("[%s] Backup %s", dbName, domain.Describe(outcome))
	}

	return outcome, uc.notify(ctx, report)
}

func (uc *Backup) run(ctx context.Context, tempPath, filename string) domain.Outcome {
	dbName := uc.db.GetName()

	uc.logger.Infof("[%s] Creating backup to: %s", dbName, tempPath)
	if err := uc.db.Dump(ctx, tempPath); err != nil {
		return domain.AsFailure(domain.StepDump, err)
	}

	if fileInfo, err := os.Stat(tempPath); err == nil {
		uc.logger.Infof("[%s] Backup created, size: %.2f MB",
			dbName, float64(fileInfo.Size())/(1024*1024))
	}

	uc.logger.Infof("[%s] Uploading to %s...", dbName, uc.storage.Location(filename))
	if err := uc.storage.Upload(ctx, tempPath, filename); err != nil {
		return domain.AsFailure(domain.StepUpload, err)
	}

	return domain.Success{}
}

func (uc *Backup) notify(ctx context.Context, report domain.Report) error {
	for _, n := range uc.notifiers {
		body, err := n.Notify(ctx, report)
		if err != nil {
			return fmt.Errorf("notify %s: %w", n.Name(), err)
		}
		uc.logger.Infof("[%s] Notified %s: %s", report.Database, n.Name(), body)
	}
	return nil
}

func (uc *Backup) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		uc.logger.Warnf("Failed to remove temporary dump %s: %v", path, err)
	}
}
