package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements BlobStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	urlTTL time.Duration
}

// GCSConfig holds configuration for creating a GCS-backed blob store.
type GCSConfig struct {
	Bucket string
	// CredentialsJSON allows passing explicit service-account JSON locally.
	// Leave empty to use application default credentials.
	CredentialsJSON string
	// URLTTL bounds the lifetime of signed upload/download URLs.
	URLTTL time.Duration
}

// NewGCSStore creates a blob store backed by a GCS bucket.
func NewGCSStore(ctx context.Context, cfg *GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		return nil, fmt.Errorf("bucket %q not accessible: %w", cfg.Bucket, err)
	}

	urlTTL := cfg.URLTTL
	if urlTTL == 0 {
		urlTTL = 15 * time.Minute
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, urlTTL: urlTTL}, nil
}

// GenerateUploadURL returns a signed PUT URL for a new object.
func (s *GCSStore) GenerateUploadURL(ctx context.Context, name, contentType string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(name, &storage.SignedURLOptions{
		Method:      http.MethodPut,
		Expires:     time.Now().Add(s.urlTTL),
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign upload URL: %w", err)
	}
	return url, nil
}

// GetURL returns a signed download URL for an object.
func (s *GCSStore) GetURL(ctx context.Context, name string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(name, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.urlTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL: %w", err)
	}
	return url, nil
}

// List enumerates all objects in the bucket.
func (s *GCSStore) List(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo

	it := s.client.Bucket(s.bucket).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		blobs = append(blobs, BlobInfo{
			Name:      attrs.Name,
			Size:      attrs.Size,
			CreatedAt: attrs.Created,
		})
	}

	return blobs, nil
}

// Delete removes an object. Missing objects are treated as already deleted.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %q: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Ensure GCSStore implements BlobStore at compile time.
var _ BlobStore = (*GCSStore)(nil)
