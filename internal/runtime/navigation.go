package runtime

import (
	"context"

	"github.com/aretw0/arbor/pkg/async"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
)

// swap replaces the occupant of one viewport. Either side may be nil:
// a nil outgoing fills a vacant viewport, a nil incoming vacates it.
type swap struct {
	parent   *Controller
	viewport string
	outgoing *Controller
	incoming *Controller
}

type kept struct {
	controller  *Controller
	instruction *domain.NavigationInstruction
}

// navPlan is the difference between the committed controller tree and a
// resolved navigation. Nothing in the committed tree changes until commit.
type navPlan struct {
	swaps []*swap
	kept  []kept
}

func (r *Router) plan(instructions []*domain.NavigationInstruction) *navPlan {
	p := &navPlan{}
	r.diff(p, r.root, instructions)
	return p
}

// diff walks parent's viewports in declaration order. A viewport whose
// occupant already satisfies the instruction is kept and descended into;
// any other difference becomes a swap of the whole subtree.
func (r *Router) diff(p *navPlan, parent *Controller, instructions []*domain.NavigationInstruction) {
	byViewport := make(map[string]*domain.NavigationInstruction, len(instructions))
	for _, in := range instructions {
		byViewport[in.Viewport] = in
	}

	for _, vp := range parent.Definition.ViewportNames() {
		current := parent.children[vp]
		in := byViewport[vp]
		switch {
		case current == nil && in == nil:
			continue
		case current != nil && in != nil && sameTarget(current, in):
			p.kept = append(p.kept, kept{controller: current, instruction: in})
			r.diff(p, current, in.Children)
		default:
			s := &swap{parent: parent, viewport: vp, outgoing: current}
			if in != nil {
				s.incoming = r.build(in, parent)
			}
			p.swaps = append(p.swaps, s)
		}
	}
}

// build instantiates the controller subtree for in. The subtree stays
// detached from parent until commit.
func (r *Router) build(in *domain.NavigationInstruction, parent *Controller) *Controller {
	c := newController(r.ids.Next(ids.KeyComponent), in.Definition, in, parent, in.Viewport)
	for _, child := range in.Children {
		c.children[child.Viewport] = r.build(child, c)
	}
	return c
}

func (p *navPlan) commit() {
	for _, k := range p.kept {
		k.controller.Instruction = k.instruction
	}
	for _, s := range p.swaps {
		if s.incoming == nil {
			delete(s.parent.children, s.viewport)
			continue
		}
		s.parent.children[s.viewport] = s.incoming
	}
}

// execute runs the hook sequence of p. Guards and loads are hoisted ahead of
// the swap according to the deferral juncture; the swap itself follows the
// swap strategy.
func (r *Router) execute(ctx context.Context, p *navPlan) error {
	if len(p.swaps) == 0 {
		return nil
	}

	var before []async.Producer
	if r.deferUntil == domain.DeferGuardHooks || r.deferUntil == domain.DeferLoadHooks {
		before = append(before, r.guardPhase(p))
	}
	if r.deferUntil == domain.DeferLoadHooks {
		before = append(before, r.loadPhase(p))
	}
	if err := async.Drain(ctx, r.hookTimeout, async.Concat(before...)); err != nil {
		return err
	}

	var removes, adds []async.Producer
	for _, s := range p.swaps {
		if s.outgoing != nil {
			removes = append(removes, r.removeProducer(s.outgoing))
		}
		if s.incoming != nil {
			adds = append(adds, r.addProducer(s.incoming))
		}
	}

	switch r.swap {
	case domain.SwapSequentialAddFirst:
		return async.Drain(ctx, r.hookTimeout, async.Concat(append(adds, removes...)...))
	case domain.SwapParallelRemoveFirst:
		return async.Interleave(ctx, r.hookTimeout, async.Concat(removes...), async.Concat(adds...))
	default:
		return async.Drain(ctx, r.hookTimeout, async.Concat(append(removes, adds...)...))
	}
}

// guardPhase consults every canUnload of the outgoing subtrees, children
// first, and then every canLoad of the incoming ones, parents first.
func (r *Router) guardPhase(p *navPlan) async.Producer {
	var steps []async.Step
	for _, s := range p.swaps {
		for _, c := range postOrder(s.outgoing) {
			steps = append(steps, r.hookStep(c, domain.HookCanUnload, ""))
		}
	}
	for _, s := range p.swaps {
		for _, c := range preOrder(s.incoming) {
			steps = append(steps, r.hookStep(c, domain.HookCanLoad, ""))
		}
	}
	return async.Sequence(steps...)
}

func (r *Router) loadPhase(p *navPlan) async.Producer {
	var steps []async.Step
	for _, s := range p.swaps {
		for _, c := range postOrder(s.outgoing) {
			steps = append(steps, r.hookStep(c, domain.HookUnload, StateUnloaded))
		}
	}
	for _, s := range p.swaps {
		for _, c := range preOrder(s.incoming) {
			steps = append(steps, r.hookStep(c, domain.HookLoad, StateLoaded))
		}
	}
	return async.Sequence(steps...)
}

// addProducer activates c's subtree: per component, parents first, the
// inline routing hooks followed by beforeBind, afterBind and afterAttach;
// afterAttachChildren runs once the component's children are attached.
func (r *Router) addProducer(c *Controller) async.Producer {
	var head []async.Step
	if r.deferUntil == domain.DeferNone {
		head = append(head, r.hookStep(c, domain.HookCanLoad, ""))
	}
	if r.deferUntil != domain.DeferLoadHooks {
		head = append(head, r.hookStep(c, domain.HookLoad, StateLoaded))
	}
	head = append(head,
		r.hookStep(c, domain.HookBeforeBind, StateActivating),
		r.hookStep(c, domain.HookAfterBind, ""),
		r.hookStep(c, domain.HookAfterAttach, ""),
	)

	ps := []async.Producer{async.Sequence(head...)}
	for _, child := range c.Children() {
		ps = append(ps, async.Lazy(func() async.Producer { return r.addProducer(child) }))
	}
	ps = append(ps, async.Sequence(r.hookStep(c, domain.HookAfterAttachChildren, StateActive)))
	return async.Concat(ps...)
}

// removeProducer deactivates c's subtree: the inline routing hooks children
// first, then the detach and unbind hooks.
func (r *Router) removeProducer(c *Controller) async.Producer {
	var steps []async.Step
	for _, n := range postOrder(c) {
		if r.deferUntil == domain.DeferNone {
			steps = append(steps, r.hookStep(n, domain.HookCanUnload, ""))
		}
		if r.deferUntil != domain.DeferLoadHooks {
			steps = append(steps, r.hookStep(n, domain.HookUnload, StateUnloaded))
		}
	}
	steps = append(steps, r.detachSteps(c)...)
	return async.Sequence(steps...)
}

// detachSteps lists beforeDetach parents first, then the unbind hooks children first.
func (r *Router) detachSteps(c *Controller) []async.Step {
	var steps []async.Step
	for _, n := range preOrder(c) {
		steps = append(steps, r.hookStep(n, domain.HookBeforeDetach, StateDeactivating))
	}
	for _, n := range postOrder(c) {
		steps = append(steps,
			r.hookStep(n, domain.HookBeforeUnbind, ""),
			r.hookStep(n, domain.HookAfterUnbind, ""),
			r.hookStep(n, domain.HookAfterUnbindChildren, StateDeactivated),
		)
	}
	return steps
}
