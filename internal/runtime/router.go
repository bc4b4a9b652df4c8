package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/async"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/routing"
)

// Router navigates paths through a component route tree and drives the
// lifecycle hooks of the components it loads and removes.
//
// Start, Load, Restore and Stop are serialized. Hooks run on the calling
// goroutine and must not call back into the same Router.
type Router struct {
	id          string
	tree        *routing.Tree
	mode        domain.RoutingMode
	deferUntil  domain.DeferUntil
	swap        domain.SwapStrategy
	hookTimeout time.Duration
	hooks       domain.RouterHooks
	store       ports.SnapshotStore
	ids         *ids.Registry
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	statusMu sync.RWMutex
	status   domain.NavigationStatus
	root     *Controller
	path     string
	snapshot *domain.Snapshot
}

// New builds the route tree of root and returns an unstarted Router.
// WithTree supplies a tree built earlier instead.
func New(root *domain.Definition, opts ...Option) (*Router, error) {
	r := &Router{
		id:         "default",
		mode:       domain.RoutingConfiguredFirst,
		deferUntil: domain.DeferNone,
		swap:       domain.SwapSequentialRemoveFirst,
		ids:        ids.Default,
		logger:     logging.NewNop(),
		now:        time.Now,
		status:     domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	switch {
	case r.tree == nil:
		tree, err := routing.Build(root)
		if err != nil {
			return nil, err
		}
		r.tree = tree
	case root != nil && r.tree.Root.Component != root:
		return nil, fmt.Errorf("route tree is rooted at '%s', not '%s'", r.tree.Root.Name(), root.Name)
	}
	r.logger = r.logger.With("router", r.id)
	return r, nil
}

// ID returns the router ID.
func (r *Router) ID() string { return r.id }

// Tree returns the immutable route tree.
func (r *Router) Tree() *routing.Tree { return r.tree }

// Mode returns the routing mode.
func (r *Router) Mode() domain.RoutingMode { return r.mode }

// Status returns the navigation state machine's current state.
func (r *Router) Status() domain.NavigationStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *Router) setStatus(next domain.NavigationStatus) error {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	s, err := r.status.Transition(next)
	if err != nil {
		return err
	}
	r.status = s
	return nil
}

// Root returns the root controller, nil before Start.
func (r *Router) Root() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root
}

// Current returns a copy of the last committed snapshot, nil before Start.
func (r *Router) Current() *domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Clone()
}

// Start activates the root component and loads its default route, if any.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root != nil {
		return nil
	}

	root := newController(r.ids.Next(ids.KeyComponent), r.tree.Root.Component, nil, nil, "")
	steps := async.Sequence(
		r.hookStep(root, domain.HookBeforeBind, StateActivating),
		r.hookStep(root, domain.HookAfterBind, ""),
		r.hookStep(root, domain.HookAfterAttach, ""),
		r.hookStep(root, domain.HookAfterAttachChildren, StateActive),
	)
	if err := async.Drain(ctx, r.hookTimeout, steps); err != nil {
		return fmt.Errorf("start router: %w", err)
	}
	r.root = root
	r.snapshot = r.buildSnapshot()
	r.logger.Info("router started", "root", root.Name())

	return r.navigate(ctx, "", false)
}

// Load navigates to path. It fails with *domain.RouteMatchError before any hook
// runs when the path cannot be resolved, and with *domain.HookRejection (or a
// timeout) when a hook fails, after rolling back every component touched.
func (r *Router) Load(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == nil {
		return domain.ErrRouterNotStarted
	}
	return r.navigate(ctx, path, true)
}

// Restore loads the path of the stored snapshot.
func (r *Router) Restore(ctx context.Context) error {
	if r.store == nil {
		return errors.New("restore: router has no snapshot store")
	}
	snap, err := r.store.Load(ctx, r.id)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return r.Load(ctx, snap.Path)
}

// Stop deactivates every loaded component, root included. Guards are not consulted.
func (r *Router) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root == nil {
		return nil
	}

	var steps []async.Step
	for _, c := range postOrder(r.root) {
		if c != r.root {
			steps = append(steps, r.hookStep(c, domain.HookUnload, StateUnloaded))
		}
	}
	steps = append(steps, r.detachSteps(r.root)...)
	err := async.Drain(ctx, r.hookTimeout, async.Sequence(steps...))

	r.root = nil
	r.path = ""
	r.snapshot = nil
	r.logger.Info("router stopped")
	if err != nil {
		return fmt.Errorf("stop router: %w", err)
	}
	return nil
}

// navigate runs one resolve-then-activate cycle. The caller holds r.mu.
// The initial default navigation of Start is not persisted so that a stored
// snapshot survives until Restore.
func (r *Router) navigate(ctx context.Context, path string, persist bool) (err error) {
	start := r.now()
	r.emitNav(ctx, domain.EventNavigationStart, path, 0, nil)
	defer func() {
		if err != nil {
			r.emitNav(ctx, domain.EventNavigationError, path, r.now().Sub(start), err)
		} else {
			r.emitNav(ctx, domain.EventNavigationEnd, path, r.now().Sub(start), nil)
		}
	}()

	if err := r.setStatus(domain.StatusResolving); err != nil {
		return err
	}

	instructions, err := r.tree.Resolve(path, r.mode)
	if err != nil {
		r.logger.Warn("route resolution failed", "path", path, "error", err)
		r.fail()
		return err
	}
	if err := r.setStatus(domain.StatusActivating); err != nil {
		return err
	}

	p := r.plan(instructions)
	r.logger.Debug("navigation planned", "path", path, "swaps", len(p.swaps), "defer", r.deferUntil, "swap", r.swap)

	if err := r.execute(ctx, p); err != nil {
		r.logger.Warn("navigation aborted", "path", path, "error", err)
		if rbErr := r.rollback(context.WithoutCancel(ctx), p); rbErr != nil {
			r.logger.Error("rollback incomplete", "path", path, "error", rbErr)
		}
		r.fail()
		return err
	}

	p.commit()
	r.path = routing.Format(instructions)
	r.snapshot = r.buildSnapshot()
	if persist {
		r.persist(ctx)
	}
	if err := r.setStatus(domain.StatusIdle); err != nil {
		return err
	}
	r.logger.Info("navigated", "path", r.path)
	return nil
}

// fail walks the state machine through failed back to idle.
func (r *Router) fail() {
	if err := r.setStatus(domain.StatusFailed); err != nil {
		r.logger.Error("state machine", "error", err)
	}
	if err := r.setStatus(domain.StatusIdle); err != nil {
		r.logger.Error("state machine", "error", err)
	}
}

func (r *Router) buildSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		RouterID:  r.id,
		Path:      r.path,
		Viewports: r.root.viewportStates(nil),
		UpdatedAt: r.now(),
	}
}

func (r *Router) persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.id, r.snapshot); err != nil {
		r.logger.Error("failed to persist snapshot", "error", err)
	}
}

func (r *Router) emitNav(ctx context.Context, typ domain.EventType, path string, d time.Duration, err error) {
	var fn func(context.Context, *domain.NavigationEvent)
	switch typ {
	case domain.EventNavigationStart:
		fn = r.hooks.OnNavigationStart
	case domain.EventNavigationEnd:
		fn = r.hooks.OnNavigationEnd
	case domain.EventNavigationError:
		fn = r.hooks.OnNavigationError
	}
	if fn == nil {
		return
	}
	fn(ctx, &domain.NavigationEvent{
		EventBase: domain.EventBase{Timestamp: r.now(), Type: typ, RouterID: r.id},
		Path:      path,
		Duration:  d,
		Err:       err,
	})
}

// hookStep wraps one hook call. The controller moves to next (when set) only
// once the hook has settled successfully; a failure is reported as
// *domain.HookRejection and leaves the state untouched.
func (r *Router) hookStep(c *Controller, hook domain.HookName, next ControllerState) async.Step {
	step := async.Step{
		Label: c.Name() + "." + string(hook),
		Run: func(ctx context.Context) domain.Awaitable {
			if next != "" {
				if err := c.canTransition(next); err != nil {
					return async.Rejected(err)
				}
			}
			if r.hooks.OnHook != nil {
				r.hooks.OnHook(ctx, &domain.HookEvent{
					EventBase:  domain.EventBase{Timestamp: r.now(), Type: domain.EventHookInvoke, RouterID: r.id},
					Component:  c.Name(),
					InstanceID: c.ID,
					Hook:       hook,
				})
			}
			a := domain.InvokeHook(ctx, c.Instance, hook, c.Instruction)
			return async.MapErr(a, func(err error) error {
				return &domain.HookRejection{Component: c.Name(), Hook: hook, Err: err}
			})
		},
	}
	if next != "" {
		step.Commit = func() error { return c.transition(next) }
	}
	return step
}
