package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/semmidev/pgshelf/internal/config"
)

type GCSStorage struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, cfg config.StorageConfig, opts ...option.ClientOption) (*GCSStorage, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (g *GCSStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return uploadFailure(err)
	}
	defer file.Close()

	// Cancelling the writer's context aborts the upload instead of committing it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.client.Bucket(g.bucket).Object(ObjectKey(g.prefix, remoteName)).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"

	if _, err := io.Copy(writer, file); err != nil {
		cancel()
		_ = writer.Close()
		return uploadFailure(err)
	}
	if err := writer.Close(); err != nil {
		return uploadFailure(err)
	}

	return nil
}

func (g *GCSStorage) Location(remoteName string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, ObjectKey(g.prefix, remoteName))
}

func (g *GCSStorage) Close() error {
	return g.client.Close()
}
