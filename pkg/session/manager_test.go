package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.CallRecord
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, record *domain.CallRecord) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.CallRecord)
	}
	s.data[sessionID] = record.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.CallRecord, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.data[sessionID]; ok {
		return record.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_ = manager.Save(ctx, id, domain.NewCallRecord(id, "jack", "+15551230001"))

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Writes through the manager must be serialized per session; the
	// SlowStore's IO delay widens the race window if they are not.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Save(ctx, id, domain.NewCallRecord(id, "jack", "+15551230001"))
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
}

func TestManager_CreateReservesSession(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	// Two workers racing to claim the same call session: exactly one
	// may win.
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Create(ctx, domain.NewCallRecord(id, "jack", "+15551230001"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				conflicts++
			} else {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, conflicts)

	record, err := manager.Load(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusDialing, record.Status)
}

func TestManager_DeleteAndLoad(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "delete-test"

	assert.NoError(t, manager.Create(ctx, domain.NewCallRecord(id, "remy", "+15551230002")))
	assert.NoError(t, manager.Delete(ctx, id))

	_, err := manager.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
