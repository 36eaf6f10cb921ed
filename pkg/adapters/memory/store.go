// Package memory provides in-memory implementations of the coldline
// ports: a record store plus fake telephony and speech bridges. They
// back the test suite and the local `coldline run` console.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/coldline/pkg/domain"
)

// Store implements ports.RecordStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.CallRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.CallRecord),
	}
}

// Save persists the record in memory. The record is cloned so the
// caller cannot mutate stored state through a shared pointer.
func (s *Store) Save(ctx context.Context, sessionID string, record *domain.CallRecord) error {
	cp := record.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = cp
	return nil
}

// Load retrieves a copy of the record from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return record.Clone(), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns known session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
