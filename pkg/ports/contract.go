package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(routerID, path string) *domain.Snapshot {
	return &domain.Snapshot{
		RouterID: routerID,
		Path:     path,
		Viewports: []domain.ViewportState{
			{Owner: "root", Name: domain.DefaultViewport, Component: "a01", InstanceID: 2, Path: path},
			{Owner: "a01", Name: domain.DefaultViewport, Component: "b01", InstanceID: 3, Params: map[string]string{"id": "7"}},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	routerID := "contract-test-router-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(routerID, "a")

		err := store.Save(ctx, routerID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, routerID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Path, loaded.Path)
		assert.Equal(t, snap.Viewports, loaded.Viewports)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should round-trip")
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, routerID, contractSnapshot(routerID, "a")))
		require.NoError(t, store.Save(ctx, routerID, contractSnapshot(routerID, "b")))

		loaded, err := store.Load(ctx, routerID)
		require.NoError(t, err)
		assert.Equal(t, "b", loaded.Path)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, routerID, contractSnapshot(routerID, "a")))

		first, err := store.Load(ctx, routerID)
		require.NoError(t, err)
		first.Path = "mutated"
		first.Viewports[1].Params["id"] = "mutated"

		second, err := store.Load(ctx, routerID)
		require.NoError(t, err)
		assert.Equal(t, "a", second.Path)
		assert.Equal(t, "7", second.Viewports[1].Params["id"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+routerID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, routerID, contractSnapshot(routerID, "a")))

		err := store.Delete(ctx, routerID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, routerID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, routerID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := routerID + "-1"
		id2 := routerID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot(id1, "a")))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot(id2, "b")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunLockerContract verifies that a DistributedLocker provides mutual exclusion per key.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, key, time.Second)
		require.NoError(t, err, "lock should be acquirable again after unlock")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention Times Out", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, time.Second)
		assert.Error(t, err, "second Lock on a held key should fail when ctx expires")
	})

	t.Run("Mutual Exclusion", func(t *testing.T) {
		var (
			mu      sync.Mutex
			holders int
			maxSeen int
			wg      sync.WaitGroup
		)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key+"-mx", 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				holders--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})
}
