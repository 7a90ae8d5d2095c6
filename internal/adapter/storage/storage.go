package storage

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/aws/smithy-go"
	"google.golang.org/api/googleapi"

	"github.com/semmidev/pgshelf/internal/domain"
)

// ObjectKey returns prefix/filename, or filename alone when prefix is empty.
func ObjectKey(prefix, filename string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

var (
	authCodes = map[string]bool{
		"AccessDenied":                    true,
		"AllAccessDisabled":               true,
		"ExpiredToken":                    true,
		"Forbidden":                       true,
		"InvalidAccessKeyId":              true,
		"InvalidToken":                    true,
		"SignatureDoesNotMatch":           true,
		"Unauthorized":                    true,
		"AuthenticationFailed":            true,
		"AuthorizationFailure":            true,
		"AuthorizationPermissionMismatch": true,
	}
	notFoundCodes = map[string]bool{
		"NoSuchBucket":      true,
		"NoSuchKey":         true,
		"NotFound":          true,
		"ContainerNotFound": true,
		"BlobNotFound":      true,
	}
)

type statusCoder interface {
	HTTPStatusCode() int
}

// classify maps an upload error onto the closed set of failure kinds.
func classify(err error) domain.ErrorKind {
	var (
		apiErr smithy.APIError
		status statusCoder
		gErr   *googleapi.Error
		azErr  azblob.StorageError
		netErr net.Error
	)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return domain.KindAuth
	case errors.As(err, &apiErr) && kindForCode(apiErr.ErrorCode()) != domain.KindOther:
		return kindForCode(apiErr.ErrorCode())
	// Transport errors from the AWS SDK still carry a zero status code.
	case errors.As(err, &status) && status.HTTPStatusCode() != 0:
		return kindForStatus(status.HTTPStatusCode())
	case errors.As(err, &gErr):
		return kindForStatus(gErr.Code)
	case errors.As(err, &azErr):
		if kind := kindForCode(string(azErr.ServiceCode())); kind != domain.KindOther {
			return kind
		}
		if resp := azErr.Response(); resp != nil {
			return kindForStatus(resp.StatusCode)
		}
		return domain.KindOther
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return domain.KindNetwork
	default:
		return domain.KindOther
	}
}

func kindForCode(code string) domain.ErrorKind {
	switch {
	case authCodes[code]:
		return domain.KindAuth
	case notFoundCodes[code]:
		return domain.KindNotFound
	default:
		return domain.KindOther
	}
}

func kindForStatus(code int) domain.ErrorKind {
	switch code {
	case 401, 403:
		return domain.KindAuth
	case 404:
		return domain.KindNotFound
	default:
		return domain.KindOther
	}
}

func uploadFailure(err error) *domain.Failure {
	return domain.NewFailure(domain.StepUpload, classify(err), err)
}

// Unavailable is a Storage whose client could not be built. Every upload
// reports the construction error, so it still reaches the notifiers.
type Unavailable struct {
	Err error
}

func (u Unavailable) Upload(ctx context.Context, localPath string, remoteName string) error {
	return uploadFailure(u.Err)
}

func (u Unavailable) Location(remoteName string) string {
	return remoteName
}
