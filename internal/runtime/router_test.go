package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/async"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/routing"
)

// recorder collects "component.hook" labels in invocation order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (rec *recorder) hooks() domain.RouterHooks {
	return domain.RouterHooks{
		OnHook: func(_ context.Context, e *domain.HookEvent) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.calls = append(rec.calls, e.Component+"."+string(e.Hook))
		},
	}
}

func (rec *recorder) take() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := rec.calls
	rec.calls = nil
	return out
}

func component(name string, children ...domain.Child) *domain.Definition {
	def := &domain.Definition{Name: name}
	if len(children) > 0 {
		def.Route = &domain.RouteConfig{Children: children}
	}
	return def
}

func withHooks(def *domain.Definition, hooks func() *domain.Hooks) *domain.Definition {
	def.New = func() any { return hooks() }
	return def
}

func newRouter(t *testing.T, root *domain.Definition, rec *recorder, opts ...runtime.Option) *runtime.Router {
	t.Helper()
	opts = append([]runtime.Option{
		runtime.WithRouterHooks(rec.hooks()),
		runtime.WithIDs(ids.NewRegistry()),
	}, opts...)
	r, err := runtime.New(root, opts...)
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	return r
}

func assertTrace(t *testing.T, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("hook trace mismatch (-want +got):\n%s", diff)
	}
}

var (
	removeA = []string{
		"a.canUnload", "a.unload",
		"a.beforeDetach", "a.beforeUnbind", "a.afterUnbind", "a.afterUnbindChildren",
	}
	addB = []string{
		"b.canLoad", "b.load",
		"b.beforeBind", "b.afterBind", "b.afterAttach", "b.afterAttachChildren",
	}
)

func siblings() *domain.Definition {
	return component("root",
		domain.Child{Path: "a", Component: component("a")},
		domain.Child{Path: "b", Component: component("b")},
	)
}

func TestRouter_StartActivatesRoot(t *testing.T) {
	rec := &recorder{}
	r := newRouter(t, siblings(), rec)

	assertTrace(t, []string{
		"root.beforeBind", "root.afterBind", "root.afterAttach", "root.afterAttachChildren",
	}, rec.take())
	assert.Equal(t, runtime.StateActive, r.Root().State())
	assert.Equal(t, domain.StatusIdle, r.Status())

	require.NoError(t, r.Start(context.Background()), "Start is idempotent")
	assert.Empty(t, rec.take())
}

func TestRouter_LoadBeforeStart(t *testing.T) {
	r, err := runtime.New(siblings())
	require.NoError(t, err)
	assert.ErrorIs(t, r.Load(context.Background(), "a"), domain.ErrRouterNotStarted)
}

func TestRouter_HookOrder(t *testing.T) {
	tests := []struct {
		name       string
		deferUntil domain.DeferUntil
		swap       domain.SwapStrategy
		want       []string
	}{
		{
			name:       "inline remove first",
			deferUntil: domain.DeferNone,
			swap:       domain.SwapSequentialRemoveFirst,
			want:       append(append([]string{}, removeA...), addB...),
		},
		{
			name:       "inline add first",
			deferUntil: domain.DeferNone,
			swap:       domain.SwapSequentialAddFirst,
			want:       append(append([]string{}, addB...), removeA...),
		},
		{
			name:       "guards hoisted",
			deferUntil: domain.DeferGuardHooks,
			swap:       domain.SwapSequentialRemoveFirst,
			want: []string{
				"a.canUnload", "b.canLoad",
				"a.unload", "a.beforeDetach", "a.beforeUnbind", "a.afterUnbind", "a.afterUnbindChildren",
				"b.load", "b.beforeBind", "b.afterBind", "b.afterAttach", "b.afterAttachChildren",
			},
		},
		{
			name:       "guards and loads hoisted",
			deferUntil: domain.DeferLoadHooks,
			swap:       domain.SwapSequentialRemoveFirst,
			want: []string{
				"a.canUnload", "b.canLoad", "a.unload", "b.load",
				"a.beforeDetach", "a.beforeUnbind", "a.afterUnbind", "a.afterUnbindChildren",
				"b.beforeBind", "b.afterBind", "b.afterAttach", "b.afterAttachChildren",
			},
		},
		{
			name:       "parallel",
			deferUntil: domain.DeferNone,
			swap:       domain.SwapParallelRemoveFirst,
			want: []string{
				"a.canUnload", "b.canLoad",
				"a.unload", "b.load",
				"a.beforeDetach", "b.beforeBind",
				"a.beforeUnbind", "b.afterBind",
				"a.afterUnbind", "b.afterAttach",
				"a.afterUnbindChildren", "b.afterAttachChildren",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := newRouter(t, siblings(), rec,
				runtime.WithDeferUntil(tt.deferUntil),
				runtime.WithSwapStrategy(tt.swap),
			)
			ctx := context.Background()
			require.NoError(t, r.Load(ctx, "a"))
			rec.take()

			require.NoError(t, r.Load(ctx, "b"))
			assertTrace(t, tt.want, rec.take())
			assert.Equal(t, "b", r.Current().Path)
		})
	}
}

func TestRouter_NestedAddOrder(t *testing.T) {
	rec := &recorder{}
	c := component("c")
	b := component("b", domain.Child{Path: "c", Component: c})
	r := newRouter(t, component("root", domain.Child{Path: "b", Component: b}), rec)
	rec.take()

	require.NoError(t, r.Load(context.Background(), "b/c"))
	assertTrace(t, []string{
		"b.canLoad", "b.load", "b.beforeBind", "b.afterBind", "b.afterAttach",
		"c.canLoad", "c.load", "c.beforeBind", "c.afterBind", "c.afterAttach", "c.afterAttachChildren",
		"b.afterAttachChildren",
	}, rec.take())

	require.NoError(t, r.Load(context.Background(), ""))
	assertTrace(t, []string{
		"c.canUnload", "c.unload", "b.canUnload", "b.unload",
		"b.beforeDetach", "c.beforeDetach",
		"c.beforeUnbind", "c.afterUnbind", "c.afterUnbindChildren",
		"b.beforeUnbind", "b.afterUnbind", "b.afterUnbindChildren",
	}, rec.take())
	assert.Nil(t, r.Root().Child(domain.DefaultViewport))
}

func TestRouter_GuardRejectionRollsBack(t *testing.T) {
	rec := &recorder{}
	b := withHooks(component("b"), func() *domain.Hooks {
		return &domain.Hooks{OnCanLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Rejected(async.Refuse("not allowed"))
		}}
	})
	root := component("root",
		domain.Child{Path: "a", Component: component("a")},
		domain.Child{Path: "b", Component: b},
	)
	r := newRouter(t, root, rec)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a"))
	before := r.Root().Child(domain.DefaultViewport)
	rec.take()

	err := r.Load(ctx, "b")
	require.Error(t, err)
	var rejection *domain.HookRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "b", rejection.Component)
	assert.Equal(t, domain.HookCanLoad, rejection.Hook)
	assert.ErrorIs(t, err, domain.ErrGuardRejected)

	assertTrace(t, append(append([]string{}, removeA...),
		"b.canLoad",
		"a.load", "a.beforeBind", "a.afterBind", "a.afterAttach", "a.afterAttachChildren",
	), rec.take())

	assert.Same(t, before, r.Root().Child(domain.DefaultViewport), "outgoing component must be restored in place")
	assert.Equal(t, runtime.StateActive, before.State())
	assert.Equal(t, "a", r.Current().Path)
	assert.Equal(t, domain.StatusIdle, r.Status())
}

func TestRouter_LoadFailureUndoesIncoming(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("fetch failed")
	c := withHooks(component("c"), func() *domain.Hooks {
		return &domain.Hooks{OnLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Go(func() error { return boom })
		}}
	})
	b := component("b", domain.Child{Path: "c", Component: c})
	root := component("root",
		domain.Child{Path: "a", Component: component("a")},
		domain.Child{Path: "b", Component: b},
	)
	r := newRouter(t, root, rec, runtime.WithSwapStrategy(domain.SwapSequentialAddFirst))
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a"))
	rec.take()

	err := r.Load(ctx, "b/c")
	assert.ErrorIs(t, err, boom)

	assertTrace(t, []string{
		"b.canLoad", "b.load", "b.beforeBind", "b.afterBind", "b.afterAttach",
		"c.canLoad", "c.load",
		"b.unload",
		"b.beforeDetach", "b.beforeUnbind", "b.afterUnbind", "b.afterUnbindChildren",
	}, rec.take())
	assert.Equal(t, "a", r.Root().Child(domain.DefaultViewport).Name())
	assert.Equal(t, "a", r.Current().Path)
}

func TestRouter_BeforeBindFailureSkipsUnbind(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("bind failed")
	b := withHooks(component("b"), func() *domain.Hooks {
		return &domain.Hooks{OnBeforeBind: func(context.Context) domain.Awaitable {
			return async.Rejected(boom)
		}}
	})
	r := newRouter(t, component("root", domain.Child{Path: "b", Component: b}), rec)
	rec.take()

	assert.ErrorIs(t, r.Load(context.Background(), "b"), boom)
	assertTrace(t, []string{"b.canLoad", "b.load", "b.beforeBind", "b.unload"}, rec.take())
	assert.Nil(t, r.Root().Child(domain.DefaultViewport))
}

func TestRouter_ParallelRejectionAwaitsPendingHooks(t *testing.T) {
	rec := &recorder{}
	var mu sync.Mutex
	var events []string
	mark := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}

	a := withHooks(component("a"), func() *domain.Hooks {
		return &domain.Hooks{OnCanUnload: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Go(func() error {
				time.Sleep(10 * time.Millisecond)
				return async.Refuse("unsaved changes")
			})
		}}
	})
	b := withHooks(component("b"), func() *domain.Hooks {
		return &domain.Hooks{
			OnLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
				mark("b.load start")
				return async.Go(func() error {
					time.Sleep(50 * time.Millisecond)
					mark("b.load done")
					return nil
				})
			},
			OnUnload: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
				mark("b.unload")
				return nil
			},
		}
	})
	root := component("root",
		domain.Child{Path: "a", Component: a},
		domain.Child{Path: "b", Component: b},
	)
	r := newRouter(t, root, rec,
		runtime.WithSwapStrategy(domain.SwapParallelRemoveFirst),
		runtime.WithHookTimeout(time.Second),
	)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a"))
	before := r.Root().Child(domain.DefaultViewport)
	rec.take()

	err := r.Load(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrGuardRejected)

	mu.Lock()
	assert.Equal(t, []string{"b.load start", "b.load done", "b.unload"}, events)
	mu.Unlock()
	assertTrace(t, []string{"a.canUnload", "b.canLoad", "b.load", "b.unload"}, rec.take())
	assert.Same(t, before, r.Root().Child(domain.DefaultViewport))
	assert.Equal(t, runtime.StateActive, before.State())
	assert.Equal(t, "a", r.Current().Path)
	assert.Equal(t, domain.StatusIdle, r.Status())
}

func TestRouter_LoadPhaseFailureRestoresOutgoing(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("fetch failed")
	b := withHooks(component("b"), func() *domain.Hooks {
		return &domain.Hooks{OnLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Go(func() error { return boom })
		}}
	})
	root := component("root",
		domain.Child{Path: "a", Component: component("a")},
		domain.Child{Path: "b", Component: b},
	)
	r := newRouter(t, root, rec, runtime.WithDeferUntil(domain.DeferLoadHooks))
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a"))
	before := r.Root().Child(domain.DefaultViewport)
	rec.take()

	assert.ErrorIs(t, r.Load(ctx, "b"), boom)
	assertTrace(t, []string{
		"a.canUnload", "b.canLoad",
		"a.unload", "b.load",
		"a.load",
	}, rec.take())
	assert.Same(t, before, r.Root().Child(domain.DefaultViewport))
	assert.Equal(t, runtime.StateActive, before.State())
	assert.Equal(t, "a", r.Current().Path)
}

func TestRouter_RouteMatchErrorRunsNoHooks(t *testing.T) {
	rec := &recorder{}
	var failures []string
	r := newRouter(t, siblings(), rec, runtime.WithRouterHooks(domain.RouterHooks{
		OnNavigationError: func(_ context.Context, e *domain.NavigationEvent) {
			failures = append(failures, e.Path)
		},
	}))
	rec.take()

	err := r.Load(context.Background(), "zzz")
	var matchErr *domain.RouteMatchError
	require.ErrorAs(t, err, &matchErr)
	assert.Equal(t, "zzz", matchErr.Segment)
	assert.Empty(t, rec.take())
	assert.Equal(t, []string{"zzz"}, failures)
	assert.Equal(t, domain.StatusIdle, r.Status())
}

func TestRouter_KeepsSharedAncestor(t *testing.T) {
	rec := &recorder{}
	a := component("a",
		domain.Child{Path: "x", Component: component("x")},
		domain.Child{Path: "y", Component: component("y")},
	)
	r := newRouter(t, component("root", domain.Child{Path: "a", Component: a}), rec)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a/x"))
	kept := r.Root().Child(domain.DefaultViewport)
	rec.take()

	require.NoError(t, r.Load(ctx, "a/y"))
	assertTrace(t, []string{
		"x.canUnload", "x.unload", "x.beforeDetach", "x.beforeUnbind", "x.afterUnbind", "x.afterUnbindChildren",
		"y.canLoad", "y.load", "y.beforeBind", "y.afterBind", "y.afterAttach", "y.afterAttachChildren",
	}, rec.take())
	assert.Same(t, kept, r.Root().Child(domain.DefaultViewport))
	assert.Equal(t, "y", kept.Child(domain.DefaultViewport).Name())
	assert.Equal(t, "a/y", r.Current().Path)
}

func TestRouter_ParamsChangeReplacesInstance(t *testing.T) {
	rec := &recorder{}
	var loaded []string
	user := withHooks(component("user"), func() *domain.Hooks {
		return &domain.Hooks{OnLoad: func(_ context.Context, nav *domain.NavigationInstruction) domain.Awaitable {
			loaded = append(loaded, nav.Params["id"])
			return nil
		}}
	})
	r := newRouter(t, component("root", domain.Child{Path: "users/:id", Component: user}), rec)
	ctx := context.Background()

	require.NoError(t, r.Load(ctx, "users/1"))
	first := r.Root().Child(domain.DefaultViewport)
	require.NoError(t, r.Load(ctx, "users/1"))
	assert.Same(t, first, r.Root().Child(domain.DefaultViewport), "same params keep the instance")

	require.NoError(t, r.Load(ctx, "users/2"))
	second := r.Root().Child(domain.DefaultViewport)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []string{"1", "2"}, loaded)

	snap := r.Current()
	require.Len(t, snap.Viewports, 1)
	assert.Equal(t, map[string]string{"id": "2"}, snap.Viewports[0].Params)
	assert.Equal(t, "users/2", snap.Path)
}

func TestRouter_SiblingViewports(t *testing.T) {
	rec := &recorder{}
	root := component("root",
		domain.Child{Path: "a", Component: component("a"), Viewport: "left"},
		domain.Child{Path: "b", Component: component("b"), Viewport: "right"},
	)
	root.Viewports = []string{"left", "right"}
	r := newRouter(t, root, rec)
	ctx := context.Background()

	require.NoError(t, r.Load(ctx, "a+b"))
	assert.Equal(t, "a", r.Root().Child("left").Name())
	assert.Equal(t, "b", r.Root().Child("right").Name())
	rec.take()

	require.NoError(t, r.Load(ctx, "a"))
	assertTrace(t, []string{
		"b.canUnload", "b.unload", "b.beforeDetach", "b.beforeUnbind", "b.afterUnbind", "b.afterUnbindChildren",
	}, rec.take())
	assert.Nil(t, r.Root().Child("right"))
}

func TestRouter_DefaultRouteLoadsOnStart(t *testing.T) {
	rec := &recorder{}
	root := component("root",
		domain.Child{Component: component("home"), Default: true},
		domain.Child{Path: "about", Component: component("about")},
	)
	r := newRouter(t, root, rec)

	assertTrace(t, []string{
		"root.beforeBind", "root.afterBind", "root.afterAttach", "root.afterAttachChildren",
		"home.canLoad", "home.load", "home.beforeBind", "home.afterBind", "home.afterAttach", "home.afterAttachChildren",
	}, rec.take())

	snap := r.Current()
	assert.Equal(t, "", snap.Path)
	require.Len(t, snap.Viewports, 1)
	assert.Equal(t, "home", snap.Viewports[0].Component)
}

func TestRouter_AsyncHooksAreAwaited(t *testing.T) {
	rec := &recorder{}
	var mu sync.Mutex
	var order []string
	mark := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	slow := withHooks(component("a"), func() *domain.Hooks {
		return &domain.Hooks{
			OnLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
				return async.Go(func() error {
					time.Sleep(20 * time.Millisecond)
					mark("load settled")
					return nil
				})
			},
			OnBeforeBind: func(context.Context) domain.Awaitable {
				mark("beforeBind")
				return nil
			},
		}
	})
	r := newRouter(t, component("root", domain.Child{Path: "a", Component: slow}), rec)

	require.NoError(t, r.Load(context.Background(), "a"))
	assert.Equal(t, []string{"load settled", "beforeBind"}, order)
}

func TestRouter_HookTimeout(t *testing.T) {
	rec := &recorder{}
	stuck := withHooks(component("a"), func() *domain.Hooks {
		return &domain.Hooks{OnCanLoad: func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.NewPromise()
		}}
	})
	r := newRouter(t, component("root", domain.Child{Path: "a", Component: stuck}), rec,
		runtime.WithHookTimeout(30*time.Millisecond))

	err := r.Load(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrHookTimeout)
	assert.Contains(t, err.Error(), "a.canLoad")
	assert.Nil(t, r.Root().Child(domain.DefaultViewport))
	assert.Equal(t, domain.StatusIdle, r.Status())
}

func TestRouter_StatusDuringActivation(t *testing.T) {
	rec := &recorder{}
	var r *runtime.Router
	var seen domain.NavigationStatus
	a := withHooks(component("a"), func() *domain.Hooks {
		return &domain.Hooks{OnBeforeBind: func(context.Context) domain.Awaitable {
			seen = r.Status()
			return nil
		}}
	})
	r = newRouter(t, component("root", domain.Child{Path: "a", Component: a}), rec)

	require.NoError(t, r.Load(context.Background(), "a"))
	assert.Equal(t, domain.StatusActivating, seen)
	assert.Equal(t, domain.StatusIdle, r.Status())
}

func TestRouter_StopDeactivatesTree(t *testing.T) {
	rec := &recorder{}
	r := newRouter(t, siblings(), rec)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx, "a"))
	a := r.Root().Child(domain.DefaultViewport)
	rec.take()

	require.NoError(t, r.Stop(ctx))
	assertTrace(t, []string{
		"a.unload",
		"root.beforeDetach", "a.beforeDetach",
		"a.beforeUnbind", "a.afterUnbind", "a.afterUnbindChildren",
		"root.beforeUnbind", "root.afterUnbind", "root.afterUnbindChildren",
	}, rec.take())
	assert.Equal(t, runtime.StateDeactivated, a.State())
	assert.Nil(t, r.Root())
	assert.Nil(t, r.Current())
	assert.ErrorIs(t, r.Load(ctx, "a"), domain.ErrRouterNotStarted)
}

func TestRouter_PersistAndRestore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	first := newRouter(t, siblings(), &recorder{},
		runtime.WithID("tab-1"), runtime.WithStore(store), runtime.WithClock(clock))
	require.NoError(t, first.Load(ctx, "b"))

	saved, err := store.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "b", saved.Path)
	assert.Equal(t, clock(), saved.UpdatedAt)
	assert.Equal(t, "tab-1", saved.RouterID)

	rec := &recorder{}
	second := newRouter(t, siblings(), rec,
		runtime.WithID("tab-1"), runtime.WithStore(store))
	rec.take()
	require.NoError(t, second.Restore(ctx))
	assertTrace(t, addB, rec.take())
	assert.Equal(t, "b", second.Current().Path)
}

func TestRouter_RestoreWithoutSnapshot(t *testing.T) {
	r := newRouter(t, siblings(), &recorder{}, runtime.WithStore(memory.NewStore()))
	assert.ErrorIs(t, r.Restore(context.Background()), domain.ErrSnapshotNotFound)
}

func TestRouter_NavigationEvents(t *testing.T) {
	var events []domain.EventType
	hooks := domain.RouterHooks{
		OnNavigationStart: func(_ context.Context, e *domain.NavigationEvent) { events = append(events, e.Type) },
		OnNavigationEnd:   func(_ context.Context, e *domain.NavigationEvent) { events = append(events, e.Type) },
	}
	r := newRouter(t, siblings(), &recorder{}, runtime.WithRouterHooks(hooks))
	events = nil

	require.NoError(t, r.Load(context.Background(), "a"))
	assert.Equal(t, []domain.EventType{domain.EventNavigationStart, domain.EventNavigationEnd}, events)
}

func TestRouter_WithTreeSharesRouteTree(t *testing.T) {
	root := siblings()
	tree, err := routing.Build(root)
	require.NoError(t, err)

	first, err := runtime.New(root, runtime.WithTree(tree))
	require.NoError(t, err)
	second, err := runtime.New(root, runtime.WithTree(tree), runtime.WithID("tab-2"))
	require.NoError(t, err)
	assert.Same(t, tree, first.Tree())
	assert.Same(t, tree, second.Tree())

	require.NoError(t, second.Start(context.Background()))
	require.NoError(t, second.Load(context.Background(), "b"))
	assert.Equal(t, "b", second.Current().Path)

	_, err = runtime.New(component("other"), runtime.WithTree(tree))
	assert.ErrorContains(t, err, "route tree is rooted at 'root'")
}
