// Package blob reads and writes CSV objects in Azure Blob Storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Scheme prefixes blob locations on the command line.
const Scheme = "blob://"

// Sentinel errors for blob access.
var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidURI = errors.New("invalid blob uri")
)

// api is the subset of *azblob.Client used here.
type api interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// Store accesses blobs of one storage account.
type Store struct {
	client           api
	defaultContainer string
}

// NewFromConnectionString creates a Store from an account connection string.
// container is used for names without an explicit container.
func NewFromConnectionString(conn, container string) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(conn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &Store{client: client, defaultContainer: container}, nil
}

// IsURI reports whether s names a blob.
func IsURI(s string) bool { return strings.HasPrefix(s, Scheme) }

// ParseURI splits blob://container/name. Without a container segment the
// fallback container is used.
func ParseURI(uri, fallback string) (container, name string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	container, name, found := strings.Cut(rest, "/")
	if !found {
		container, name = fallback, rest
	}
	if container == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	return container, name, nil
}

// Open streams the blob at uri.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	container, name, err := ParseURI(uri, s.defaultContainer)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, container, name)
		}
		return nil, fmt.Errorf("failed to download %s/%s: %w", container, name, err)
	}
	return resp.Body, nil
}

// Put uploads data to uri, replacing any existing blob.
func (s *Store) Put(ctx context.Context, uri string, data []byte) error {
	container, name, err := ParseURI(uri, s.defaultContainer)
	if err != nil {
		return err
	}
	if _, err := s.client.UploadBuffer(ctx, container, name, data, nil); err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", container, name, err)
	}
	return nil
}
