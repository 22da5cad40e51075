package media

import (
	"context"
	"fmt"
	"sync"
)

const memoryBucket = "local"

// MemoryStore keeps blobs in process memory. It backs local runs without an
// S3 endpoint; PresignGet hands out the stored URL unchanged.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return m.url(path), nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("object %s not found", path)
	}
	delete(m.objects, path)
	return nil
}

func (m *MemoryStore) PathFromURL(rawURL string) (string, error) {
	return pathFromURL(rawURL, memoryBucket)
}

func (m *MemoryStore) PresignGet(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[path]; !ok {
		return "", fmt.Errorf("object %s not found", path)
	}
	return m.url(path), nil
}

// Object returns a copy of the stored bytes and content type.
func (m *MemoryStore) Object(path string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[path]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), o.data...), o.contentType, true
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStore) url(path string) string {
	return m.baseURL + "/" + memoryBucket + "/" + path
}
