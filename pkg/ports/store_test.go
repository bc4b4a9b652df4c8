package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// MockStore is an in-memory implementation of SnapshotStore for testing purposes.
type MockStore struct {
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, routerID string, snap *domain.Snapshot) error {
	// Deep copy to simulate serialization
	m.data[routerID] = snap.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, routerID string) (*domain.Snapshot, error) {
	snap, ok := m.data[routerID]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, routerID string) error {
	delete(m.data, routerID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MockLocker is a process-local DistributedLocker.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func (l *MockLocker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		if l.held == nil {
			l.held = make(map[string]chan struct{})
		}
		wait, busy := l.held[key]
		if !busy {
			released := make(chan struct{})
			l.held[key] = released
			l.mu.Unlock()
			return func(context.Context) error {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(released)
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func TestSnapshotStore_Contract(t *testing.T) {
	// The MockStore doubles as a reference implementation of the contract.
	ports.RunSnapshotStoreContract(t, NewMockStore())
}

func TestLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, &MockLocker{})
}
