package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/routing"
	"github.com/aretw0/arbor/pkg/session"
)

// Engine is the high-level entry point for the arbor library.
// It keeps one router per session over a shared route tree and provides a
// simplified API for consumers.
type Engine struct {
	root        *domain.Definition
	tree        *routing.Tree
	mode        domain.RoutingMode
	deferUntil  domain.DeferUntil
	swap        domain.SwapStrategy
	hookTimeout time.Duration
	hooks       domain.RouterHooks
	store       ports.SnapshotStore
	locker      ports.DistributedLocker
	registry    *prometheus.Registry
	logger      *slog.Logger
	sessions    *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRoutingMode sets how dependency components are reachable. Default configured-first.
func WithRoutingMode(mode domain.RoutingMode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithDeferUntil sets how far guard and load hooks are hoisted ahead of the swap. Default none.
func WithDeferUntil(d domain.DeferUntil) Option {
	return func(e *Engine) {
		e.deferUntil = d
	}
}

// WithSwapStrategy orders removals against additions. Default sequential-remove-first.
func WithSwapStrategy(s domain.SwapStrategy) Option {
	return func(e *Engine) {
		e.swap = s
	}
}

// WithHookTimeout bounds how long any awaited lifecycle hook may stay pending.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.hookTimeout = d
	}
}

// WithRouterHooks registers observability hooks on every session router.
func WithRouterHooks(hooks domain.RouterHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithStore persists session snapshots. Default is an in-memory store.
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes sessions across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithMetrics registers navigation and hook metrics with reg and serves
// them from Handler.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New validates the route tree of root and initializes an Engine.
func New(root *domain.Definition, opts ...Option) (*Engine, error) {
	eng := &Engine{
		root:       root,
		mode:       domain.RoutingConfiguredFirst,
		deferUntil: domain.DeferNone,
		swap:       domain.SwapSequentialRemoveFirst,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	tree, err := routing.Build(root)
	if err != nil {
		return nil, fmt.Errorf("invalid route tree: %w", err)
	}
	eng.tree = tree

	if eng.registry != nil {
		m, err := observability.NewMetrics(eng.registry)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		eng.hooks = eng.hooks.Merge(m.Hooks())
	}

	var sessionOpts []session.Option
	sessionOpts = append(sessionOpts, session.WithLogger(eng.logger))
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, eng.newRouter, sessionOpts...)
	return eng, nil
}

func (e *Engine) newRouter(sessionID string) (session.Navigator, error) {
	r, err := runtime.New(e.root,
		runtime.WithTree(e.tree),
		runtime.WithID(sessionID),
		runtime.WithRoutingMode(e.mode),
		runtime.WithDeferUntil(e.deferUntil),
		runtime.WithSwapStrategy(e.swap),
		runtime.WithHookTimeout(e.hookTimeout),
		runtime.WithRouterHooks(e.hooks),
		runtime.WithStore(e.store),
		runtime.WithLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Navigate loads path in the session's router, creating or restoring the
// router on first use, and returns the committed snapshot.
func (e *Engine) Navigate(ctx context.Context, sessionID, path string) (*domain.Snapshot, error) {
	return e.sessions.Navigate(ctx, sessionID, path)
}

// Current returns the session's last committed snapshot.
func (e *Engine) Current(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return e.sessions.Current(ctx, sessionID)
}

// Close deactivates the session's components. Its snapshot stays stored and
// the next Navigate restores it.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	return e.sessions.Close(ctx, sessionID)
}

// Delete deactivates the session and forgets its snapshot.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// Routes lists the routes reachable under the engine's routing mode.
func (e *Engine) Routes() []routing.RouteInfo {
	return e.tree.Describe(e.mode)
}

// Tree returns the validated route tree.
func (e *Engine) Tree() *routing.Tree {
	return e.tree
}

// Mode returns the routing mode.
func (e *Engine) Mode() domain.RoutingMode {
	return e.mode
}

// Sessions returns the underlying session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Handler serves the engine over HTTP. Metrics are exposed when the engine
// was built WithMetrics.
func (e *Engine) Handler() http.Handler {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(e.logger)}
	if e.registry != nil {
		opts = append(opts, httpAdapter.WithGatherer(e.registry))
	}
	return httpAdapter.NewHandler(e.sessions, e.Routes(), opts...)
}
