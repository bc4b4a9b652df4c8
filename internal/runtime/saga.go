package runtime

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/async"
	"github.com/aretw0/arbor/pkg/domain"
)

// rollback compensates a navigation aborted by a failing hook. Incoming
// components that got past load are unloaded and unbound; outgoing ones that
// were already unloaded or detached are loaded and bound again. Every
// compensation runs even if an earlier one fails; failures are joined.
func (r *Router) rollback(ctx context.Context, p *navPlan) error {
	var steps []async.Step
	for _, s := range p.swaps {
		steps = append(steps, r.undoIncoming(s.incoming)...)
	}
	for _, s := range p.swaps {
		steps = append(steps, r.restoreOutgoing(s.outgoing)...)
	}

	var errs []error
	for _, step := range steps {
		if err := async.Drain(ctx, r.hookTimeout, async.Sequence(step)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(steps) > 0 {
		r.logger.Info("navigation rolled back", "steps", len(steps), "failures", len(errs))
	}
	return errors.Join(errs...)
}

func (r *Router) undoIncoming(c *Controller) []async.Step {
	if c == nil {
		return nil
	}
	var (
		steps      []async.Step
		bound      []*Controller
		loadedOnly []*Controller
	)
	for _, n := range postOrder(c) {
		switch n.State() {
		case StateLoaded:
			loadedOnly = append(loadedOnly, n)
		case StateActivating, StateActive:
			bound = append(bound, n)
		default:
			continue
		}
		steps = append(steps, r.hookStep(n, domain.HookUnload, StateUnloaded))
	}
	isBound := make(map[*Controller]bool, len(bound))
	for _, n := range bound {
		isBound[n] = true
	}
	for _, n := range preOrder(c) {
		if isBound[n] {
			steps = append(steps, r.hookStep(n, domain.HookBeforeDetach, StateDeactivating))
		}
	}
	for _, n := range bound {
		steps = append(steps,
			r.hookStep(n, domain.HookBeforeUnbind, ""),
			r.hookStep(n, domain.HookAfterUnbind, ""),
			r.hookStep(n, domain.HookAfterUnbindChildren, StateDeactivated),
		)
	}
	for _, n := range loadedOnly {
		steps = append(steps, markStep(n, StateDeactivated))
	}
	return steps
}

func (r *Router) restoreOutgoing(c *Controller) []async.Step {
	if c == nil {
		return nil
	}
	var (
		steps        []async.Step
		unbound      = make(map[*Controller]bool)
		unloadedOnly []*Controller
	)
	for _, n := range preOrder(c) {
		switch n.State() {
		case StateUnloaded:
			unloadedOnly = append(unloadedOnly, n)
		case StateDeactivating, StateDeactivated:
			unbound[n] = true
		default:
			continue
		}
		steps = append(steps, r.hookStep(n, domain.HookLoad, ""))
	}
	for _, n := range preOrder(c) {
		if unbound[n] {
			steps = append(steps,
				r.hookStep(n, domain.HookBeforeBind, StateActivating),
				r.hookStep(n, domain.HookAfterBind, ""),
				r.hookStep(n, domain.HookAfterAttach, ""),
			)
		}
	}
	for _, n := range postOrder(c) {
		if unbound[n] {
			steps = append(steps, r.hookStep(n, domain.HookAfterAttachChildren, StateActive))
		}
	}
	for _, n := range unloadedOnly {
		steps = append(steps, markStep(n, StateActive))
	}
	return steps
}

// markStep moves c to state without calling a hook.
func markStep(c *Controller, state ControllerState) async.Step {
	return async.Step{
		Label: c.Name() + ".mark",
		Run: func(context.Context) domain.Awaitable {
			if err := c.transition(state); err != nil {
				return async.Rejected(err)
			}
			return nil
		},
	}
}
