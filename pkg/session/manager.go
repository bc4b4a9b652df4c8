package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// Navigator is the part of a router a Manager drives.
type Navigator interface {
	Start(ctx context.Context) error
	Load(ctx context.Context, path string) error
	Restore(ctx context.Context) error
	Stop(ctx context.Context) error
	Current() *domain.Snapshot
}

// Factory creates the router of a session. The router is expected to persist
// into the Manager's store under sessionID.
type Factory func(sessionID string) (Navigator, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps one live router per session and serializes every operation
// on a session, locally and, with a locker, across replicas.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.SnapshotStore
	factory Factory

	mu      sync.Mutex            // guards locks and routers
	locks   map[string]*lockEntry // active locks
	routers map[string]Navigator  // live routers

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock outlives a crashed holder. Default 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager creating routers with factory and reading
// snapshots of inactive sessions from store.
func NewManager(store ports.SnapshotStore, factory Factory, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		factory: factory,
		locks:   make(map[string]*lockEntry),
		routers: make(map[string]Navigator),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// router returns the live router of the session, starting one and restoring
// its stored snapshot when there is none. The caller holds the session lock.
func (m *Manager) router(ctx context.Context, sessionID string) (Navigator, error) {
	m.mu.Lock()
	r, ok := m.routers[sessionID]
	m.mu.Unlock()
	if ok {
		return r, nil
	}

	r, err := m.factory(sessionID)
	if err != nil {
		return nil, fmt.Errorf("create router for session %s: %w", sessionID, err)
	}
	if err := r.Start(ctx); err != nil {
		return nil, fmt.Errorf("start router for session %s: %w", sessionID, err)
	}
	if err := r.Restore(ctx); err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		m.logger.Warn("failed to restore session, starting fresh", "session_id", sessionID, "error", err)
	}

	m.mu.Lock()
	m.routers[sessionID] = r
	m.mu.Unlock()
	return r, nil
}

// Navigate loads path in the session's router and returns the committed snapshot.
// On a failed navigation the snapshot still reflects the restored state.
func (m *Manager) Navigate(ctx context.Context, sessionID, path string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r, err := m.router(ctx, sessionID)
		if err != nil {
			return err
		}
		err = r.Load(ctx, path)
		snap = r.Current()
		return err
	})
	return snap, err
}

// Current returns the session's snapshot from its live router or, when the
// session is inactive, from the store.
func (m *Manager) Current(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		r, ok := m.routers[sessionID]
		m.mu.Unlock()
		if ok {
			snap = r.Current()
			return nil
		}
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Close stops the session's router. Its snapshot stays in the store.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.stop(ctx, sessionID)
	})
}

// Delete stops the session's router and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.stop(ctx, sessionID); err != nil {
			m.logger.Warn("router stop failed during delete", "session_id", sessionID, "error", err)
		}
		return m.store.Delete(ctx, sessionID)
	})
}

func (m *Manager) stop(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	r, ok := m.routers[sessionID]
	delete(m.routers, sessionID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return r.Stop(ctx)
}

// Active returns the number of live routers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.routers)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"error", err,
				)
			}
		}()
	}

	return fn(ctx)
}
