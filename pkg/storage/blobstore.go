// Package storage abstracts the blob store holding report attachments.
// The core only depends on "reference in, reference out, deletable by
// reference"; the backing bucket is an external collaborator.
package storage

import (
	"context"
	"time"
)

// BlobInfo describes a stored object.
type BlobInfo struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// BlobStore is the attachment storage contract.
type BlobStore interface {
	// GenerateUploadURL returns a signed URL a client can PUT a file to.
	GenerateUploadURL(ctx context.Context, name, contentType string) (string, error)

	// GetURL returns a time-limited download URL for an object.
	GetURL(ctx context.Context, name string) (string, error)

	// List enumerates all stored objects.
	List(ctx context.Context) ([]BlobInfo, error)

	// Delete removes an object by reference. Deleting a missing object is not
	// an error; the reaper relies on this for idempotence.
	Delete(ctx context.Context, name string) error
}
