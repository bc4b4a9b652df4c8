package runtime

import (
	"fmt"
	"maps"

	"github.com/aretw0/arbor/pkg/domain"
)

// ControllerState is the lifecycle stage of a component instance.
type ControllerState string

const (
	StateCreated      ControllerState = "created"
	StateLoaded       ControllerState = "loaded"
	StateActivating   ControllerState = "activating"
	StateActive       ControllerState = "active"
	StateUnloaded     ControllerState = "unloaded"
	StateDeactivating ControllerState = "deactivating"
	StateDeactivated  ControllerState = "deactivated"
)

// controllerEdges lists the legal lifecycle transitions. Edges leaving
// unloaded, deactivating and deactivated towards an active state exist for
// rollback, as does loaded -> deactivated for an incoming component whose
// compensating unload failed.
var controllerEdges = map[ControllerState][]ControllerState{
	StateCreated:      {StateLoaded, StateActivating},
	StateLoaded:       {StateActivating, StateUnloaded, StateDeactivated},
	StateActivating:   {StateActive, StateUnloaded, StateDeactivating},
	StateActive:       {StateUnloaded, StateDeactivating},
	StateUnloaded:     {StateDeactivating, StateDeactivated, StateActive},
	StateDeactivating: {StateDeactivated, StateActivating},
	StateDeactivated:  {StateActivating},
}

// Controller is a live component instance occupying a viewport.
type Controller struct {
	ID          uint64
	Definition  *domain.Definition
	Instance    any
	Instruction *domain.NavigationInstruction
	Parent      *Controller
	Viewport    string

	state    ControllerState
	children map[string]*Controller
}

func newController(id uint64, def *domain.Definition, in *domain.NavigationInstruction, parent *Controller, viewport string) *Controller {
	return &Controller{
		ID:          id,
		Definition:  def,
		Instance:    def.Instantiate(),
		Instruction: in,
		Parent:      parent,
		Viewport:    viewport,
		state:       StateCreated,
		children:    make(map[string]*Controller),
	}
}

// Name returns the component name.
func (c *Controller) Name() string {
	return c.Definition.Name
}

// State returns the lifecycle stage.
func (c *Controller) State() ControllerState {
	return c.state
}

func (c *Controller) canTransition(next ControllerState) error {
	for _, to := range controllerEdges[c.state] {
		if to == next {
			return nil
		}
	}
	return fmt.Errorf("%w: component '%s' %s -> %s", domain.ErrIllegalTransition, c.Name(), c.state, next)
}

func (c *Controller) transition(next ControllerState) error {
	if err := c.canTransition(next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// Child returns the controller loaded in the named viewport, nil if vacant.
func (c *Controller) Child(viewport string) *Controller {
	return c.children[viewport]
}

// Children returns the occupied viewports' controllers in viewport declaration order.
func (c *Controller) Children() []*Controller {
	var out []*Controller
	for _, vp := range c.Definition.ViewportNames() {
		if child, ok := c.children[vp]; ok {
			out = append(out, child)
		}
	}
	return out
}

// preOrder lists c and its descendants, parents before children.
func preOrder(c *Controller) []*Controller {
	if c == nil {
		return nil
	}
	out := []*Controller{c}
	for _, child := range c.Children() {
		out = append(out, preOrder(child)...)
	}
	return out
}

// postOrder lists c and its descendants, children before parents.
func postOrder(c *Controller) []*Controller {
	if c == nil {
		return nil
	}
	var out []*Controller
	for _, child := range c.Children() {
		out = append(out, postOrder(child)...)
	}
	return append(out, c)
}

// sameTarget reports whether c already satisfies in, so the navigation keeps it.
func sameTarget(c *Controller, in *domain.NavigationInstruction) bool {
	if c.Definition != in.Definition || c.Instruction == nil {
		return false
	}
	return c.Instruction.Path == in.Path && maps.Equal(c.Instruction.Params, in.Params)
}

func (c *Controller) viewportStates(out []domain.ViewportState) []domain.ViewportState {
	for _, child := range c.Children() {
		vs := domain.ViewportState{
			Owner:      c.Name(),
			Name:       child.Viewport,
			Component:  child.Name(),
			InstanceID: child.ID,
		}
		if child.Instruction != nil {
			vs.Path = child.Instruction.Path
			vs.Params = maps.Clone(child.Instruction.Params)
		}
		out = append(out, vs)
		out = child.viewportStates(out)
	}
	return out
}
