package domain

import (
	"context"
	"time"
)

// Report is what notifiers receive at the end of a cycle.
type Report struct {
	Filename  string
	Database  string
	Location  string
	Outcome   Outcome
	StartedAt time.Time
	Duration  time.Duration
}

type Dumper interface {
	Dump(ctx context.Context, outputPath string) error
	GetName() string
}

type Storage interface {
	Upload(ctx context.Context, localPath string, remoteName string) error
	Location(remoteName string) string
}

type Notifier interface {
	Notify(ctx context.Context, report Report) (string, error)
	Name() string
}
