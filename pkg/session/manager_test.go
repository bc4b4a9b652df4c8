package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

func app() *domain.Definition {
	return dsl.Component("root").
		Route("a", dsl.Component("a")).
		Route("b", dsl.Component("b")).
		Definition()
}

func factory(store *memory.Store, created *atomic.Int32) session.Factory {
	root := app()
	return func(id string) (session.Navigator, error) {
		if created != nil {
			created.Add(1)
		}
		r, err := runtime.New(root, runtime.WithID(id), runtime.WithStore(store))
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

func TestManager_NavigateCreatesOneRouterPerSession(t *testing.T) {
	store := memory.NewStore()
	var created atomic.Int32
	mgr := session.NewManager(store, factory(store, &created))
	ctx := context.Background()

	snap, err := mgr.Navigate(ctx, "tab-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", snap.Path)

	snap, err = mgr.Navigate(ctx, "tab-1", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Path)

	_, err = mgr.Navigate(ctx, "tab-2", "a")
	require.NoError(t, err)

	assert.Equal(t, int32(2), created.Load())
	assert.Equal(t, 2, mgr.Active())

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tab-1", "tab-2"}, ids)
}

func TestManager_FailedNavigationKeepsSnapshot(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store, factory(store, nil))
	ctx := context.Background()

	_, err := mgr.Navigate(ctx, "tab-1", "a")
	require.NoError(t, err)

	snap, err := mgr.Navigate(ctx, "tab-1", "nowhere")
	var matchErr *domain.RouteMatchError
	assert.ErrorAs(t, err, &matchErr)
	assert.Equal(t, "a", snap.Path)
}

func TestManager_CloseThenResume(t *testing.T) {
	store := memory.NewStore()
	var created atomic.Int32
	mgr := session.NewManager(store, factory(store, &created))
	ctx := context.Background()

	_, err := mgr.Navigate(ctx, "tab-1", "b")
	require.NoError(t, err)
	require.NoError(t, mgr.Close(ctx, "tab-1"))
	assert.Equal(t, 0, mgr.Active())

	snap, err := mgr.Current(ctx, "tab-1")
	require.NoError(t, err, "inactive sessions are read from the store")
	assert.Equal(t, "b", snap.Path)

	// Navigating again restores "b" first, so re-entering "b" runs no hooks.
	snap, err = mgr.Navigate(ctx, "tab-1", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Path)
	assert.Equal(t, int32(2), created.Load())
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store, factory(store, nil))
	ctx := context.Background()

	_, err := mgr.Navigate(ctx, "tab-1", "a")
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, "tab-1"))

	_, err = mgr.Current(ctx, "tab-1")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

// countingLocker records the maximum number of concurrent holders per key.
type countingLocker struct {
	mu      sync.Mutex
	holders map[string]int
	max     int
}

func (l *countingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders == nil {
		l.holders = make(map[string]int)
	}
	l.holders[key]++
	if l.holders[key] > l.max {
		l.max = l.holders[key]
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.holders[key]--
		return nil
	}, nil
}

func TestManager_SerializesSession(t *testing.T) {
	store := memory.NewStore()
	locker := &countingLocker{}
	mgr := session.NewManager(store, factory(store, nil), session.WithLocker(locker))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "a"
			if i%2 == 0 {
				path = "b"
			}
			_, err := mgr.Navigate(ctx, "shared", path)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, locker.max, "the distributed lock is only ever taken by one local holder")
	assert.Equal(t, 1, mgr.Active())
}
