package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

type nopRouter struct{}

func (nopRouter) Start(context.Context) error        { return nil }
func (nopRouter) Load(context.Context, string) error { return nil }
func (nopRouter) Restore(context.Context) error      { return domain.ErrSnapshotNotFound }
func (nopRouter) Stop(context.Context) error         { return nil }
func (nopRouter) Current() *domain.Snapshot          { return &domain.Snapshot{} }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore(), func(string) (Navigator, error) { return nopRouter{}, nil })
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Navigate(ctx, sid, "a")
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if n := mgr.Active(); n != 0 {
		t.Errorf("%d routers still live after Delete", n)
	}
}
