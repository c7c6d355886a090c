package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorage is the object store used with the in-memory data store.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// FailUploads makes every Upload fail.
	FailUploads bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}}
}

func (s *MemoryStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.FailUploads {
		return fmt.Errorf("upload %s: storage unavailable", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Len reports how many objects are stored.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
