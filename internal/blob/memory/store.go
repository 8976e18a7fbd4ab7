// Package memory keeps snapshot objects in a map for tests.
package memory

import (
	"context"
	"sync"
)

type object struct {
	ContentType string
	Data        []byte
}

// Store is an in-memory blob store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) PutObject(_ context.Context, path, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[path] = object{ContentType: contentType, Data: buf}
	return "mem://" + path, nil
}

// Get returns a stored object's bytes, or false when absent.
func (s *Store) Get(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, false
	}
	return obj.Data, true
}
