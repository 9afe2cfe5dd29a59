package storage

import (
	"context"
	"fmt"
	"sync"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
)

// Ensure MemoryDocumentStore implements the processor's DocumentStore port
var _ shippingapp.DocumentStore = (*MemoryDocumentStore)(nil)

// MemoryDocumentStore keeps documents in memory. Used in development and
// tests where no object storage backend is available.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryDocumentStore creates an empty MemoryDocumentStore
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		objects: make(map[string][]byte),
	}
}

// Put stores a document under bucket/key, replacing any existing one.
func (m *MemoryDocumentStore) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[bucket+"/"+key] = cp
}

// Fetch returns the document stored under bucket/key.
func (m *MemoryDocumentStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("document not found: %s/%s", bucket, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
