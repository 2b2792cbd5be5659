package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for development and tests. Sessions
// do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, id string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[id] = &cp
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}
