package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage copies dumps into a directory, e.g. a mounted NAS share.
type LocalStorage struct {
	basePath string
	prefix   string
}

func NewLocal(basePath, prefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, prefix: prefix}, nil
}

func (l *LocalStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	destPath := l.GetPath(remoteName)

	source, err := os.Open(localPath)
	if err != nil {
		return uploadFailure(fmt.Errorf("failed to open source: %w", err))
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return uploadFailure(fmt.Errorf("failed to create dest dir: %w", err))
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return uploadFailure(fmt.Errorf("failed to create dest: %w", err))
	}
	defer dest.Close()

	if _, err := dest.ReadFrom(source); err != nil {
		return uploadFailure(fmt.Errorf("failed to copy: %w", err))
	}

	return nil
}

func (l *LocalStorage) Location(remoteName string) string {
	return l.GetPath(remoteName)
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(ObjectKey(l.prefix, filename)))
}
