package storage

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/semmidev/pgshelf/internal/config"
)

// GDriveStorage puts dumps into a Drive folder. Drive has no key hierarchy,
// so the prefix is ignored and the file is named after the dump.
type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg config.StorageConfig, opts ...option.ClientOption) (*GDriveStorage, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return uploadFailure(err)
	}
	defer file.Close()

	fileMetadata := &drive.File{Name: remoteName}
	if g.folderID != "" {
		fileMetadata.Parents = []string{g.folderID}
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return uploadFailure(err)
	}

	return nil
}

func (g *GDriveStorage) Location(remoteName string) string {
	return fmt.Sprintf("gdrive://%s/%s", g.folderID, remoteName)
}
