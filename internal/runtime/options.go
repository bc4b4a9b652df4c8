package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/routing"
)

// Option configures a Router.
type Option func(*Router)

// WithID names the router. The ID keys its snapshot in the store. Default "default".
func WithID(id string) Option {
	return func(r *Router) {
		r.id = id
	}
}

// WithTree reuses a route tree built by routing.Build, so routers sharing a
// root component do not rebuild it.
func WithTree(tree *routing.Tree) Option {
	return func(r *Router) {
		r.tree = tree
	}
}

// WithRoutingMode sets the routing mode. Default configured-first.
func WithRoutingMode(mode domain.RoutingMode) Option {
	return func(r *Router) {
		r.mode = mode
	}
}

// WithDeferUntil sets the deferral juncture. Default none.
func WithDeferUntil(d domain.DeferUntil) Option {
	return func(r *Router) {
		r.deferUntil = d
	}
}

// WithSwapStrategy sets the swap strategy. Default sequential-remove-first.
func WithSwapStrategy(s domain.SwapStrategy) Option {
	return func(r *Router) {
		r.swap = s
	}
}

// WithHookTimeout bounds how long any awaited hook may stay pending.
// Zero (the default) waits indefinitely.
func WithHookTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.hookTimeout = d
	}
}

// WithLogger configures a logger for the Router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithRouterHooks registers observability callbacks. Repeated calls merge.
func WithRouterHooks(hooks domain.RouterHooks) Option {
	return func(r *Router) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithStore persists every committed navigation and enables Restore.
func WithStore(store ports.SnapshotStore) Option {
	return func(r *Router) {
		r.store = store
	}
}

// WithIDs sets the registry component instance IDs are drawn from.
func WithIDs(reg *ids.Registry) Option {
	return func(r *Router) {
		r.ids = reg
	}
}

// WithClock overrides the time source used for snapshots and events.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}
