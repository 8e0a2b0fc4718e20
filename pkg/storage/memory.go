package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory BlobStore for tests and local development.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]BlobInfo

	// DeleteCalls counts Delete invocations that removed an object.
	DeleteCalls int
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]BlobInfo)}
}

// Put records an object, optionally backdating its creation time.
func (s *MemoryStore) Put(name string, size int64, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	s.blobs[name] = BlobInfo{Name: name, Size: size, CreatedAt: createdAt}
}

// GenerateUploadURL implements BlobStore. The object is recorded immediately,
// as if the client completed the upload.
func (s *MemoryStore) GenerateUploadURL(ctx context.Context, name, contentType string) (string, error) {
	s.Put(name, 0, time.Time{})
	return "memory://upload/" + name, nil
}

// GetURL implements BlobStore.
func (s *MemoryStore) GetURL(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; !ok {
		return "", fmt.Errorf("object %q not found", name)
	}
	return "memory://download/" + name, nil
}

// List implements BlobStore.
func (s *MemoryStore) List(ctx context.Context) ([]BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blobs := make([]BlobInfo, 0, len(s.blobs))
	for _, b := range s.blobs {
		blobs = append(blobs, b)
	}
	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Name < blobs[j].Name })
	return blobs, nil
}

// Delete implements BlobStore.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; ok {
		delete(s.blobs, name)
		s.DeleteCalls++
	}
	return nil
}

// Has reports whether an object exists.
func (s *MemoryStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[name]
	return ok
}

// Ensure MemoryStore implements BlobStore at compile time.
var _ BlobStore = (*MemoryStore)(nil)
