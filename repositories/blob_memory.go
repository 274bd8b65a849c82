package repositories

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsroom-cms/models"
)

// MemoryBlobStore is a map-backed BlobStore for tests and local development.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*models.Blob
	data  map[string][]byte

	// StoreHook runs before each write and can veto it; used by tests to
	// inject mid-batch storage failures.
	StoreHook func(name string) error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string]*models.Blob),
		data:  make(map[string][]byte),
	}
}

func (s *MemoryBlobStore) Store(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	if s.StoreHook != nil {
		if err := s.StoreHook(name); err != nil {
			return "", models.ErrorStorage{Err: err}
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", models.ErrorStorage{Err: err}
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = &models.Blob{
		ID:          id,
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	}
	s.data[id] = data

	return id, nil
}

func (s *MemoryBlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *models.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok {
		return nil, nil, models.ErrorNotFound{Message: "blob not found"}
	}

	meta := *blob
	return io.NopCloser(bytes.NewReader(s.data[id])), &meta, nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return models.ErrorNotFound{Message: "blob not found"}
	}
	delete(s.blobs, id)
	delete(s.data, id)
	return nil
}

// Len reports the number of stored blobs; test helper.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
