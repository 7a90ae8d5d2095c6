package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"github.com/semmidev/pgshelf/internal/config"
)

type AzureStorage struct {
	container azblob.ContainerURL
	name      string
	prefix    string
}

// NewAzure targets the container named by cfg.Bucket. cfg.Endpoint overrides
// the account URL, e.g. for Azurite.
func NewAzure(cfg config.StorageConfig) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{
		Retry: azblob.RetryOptions{MaxTries: 1},
	})

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}
	serviceURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Azure service URL: %w", err)
	}

	return &AzureStorage{
		container: azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(cfg.Bucket),
		name:      cfg.Bucket,
		prefix:    cfg.Prefix,
	}, nil
}

func (a *AzureStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return uploadFailure(err)
	}
	defer file.Close()

	blobURL := a.container.NewBlockBlobURL(ObjectKey(a.prefix, remoteName))
	_, err = azblob.UploadFileToBlockBlob(ctx, file, blobURL, azblob.UploadToBlockBlobOptions{
		BlockSize:   4 * 1024 * 1024,
		Parallelism: 1,
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: "application/octet-stream",
		},
	})
	if err != nil {
		return uploadFailure(err)
	}

	return nil
}

func (a *AzureStorage) Location(remoteName string) string {
	return fmt.Sprintf("azure://%s/%s", a.name, ObjectKey(a.prefix, remoteName))
}
