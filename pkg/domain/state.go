package domain

import (
	"fmt"
	"time"
)

// NavigationStatus is the state of the router's navigation state machine.
type NavigationStatus string

const (
	StatusIdle       NavigationStatus = "idle"
	StatusResolving  NavigationStatus = "resolving"
	StatusActivating NavigationStatus = "activating"
	StatusFailed     NavigationStatus = "failed"
)

// navigationEdges lists the legal transitions of the navigation state machine.
var navigationEdges = map[NavigationStatus][]NavigationStatus{
	StatusIdle:       {StatusResolving},
	StatusResolving:  {StatusActivating, StatusFailed},
	StatusActivating: {StatusIdle, StatusFailed},
	StatusFailed:     {StatusIdle},
}

// CanTransition reports whether the state machine may move from s to next.
func (s NavigationStatus) CanTransition(next NavigationStatus) bool {
	for _, to := range navigationEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Transition returns next if the edge is legal, or an error wrapping ErrIllegalTransition.
func (s NavigationStatus) Transition(next NavigationStatus) (NavigationStatus, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
	}
	return next, nil
}

// NavigationInstruction is the resolved target of one level of a navigation.
type NavigationInstruction struct {
	// Path is the portion of the requested path consumed by this level.
	Path string `json:"path"`
	// Component is the name of the component to load.
	Component string `json:"component"`
	// Viewport is the parent's viewport the component is loaded into.
	Viewport string `json:"viewport"`
	// Params holds values captured by ':name' segments.
	Params map[string]string `json:"params,omitempty"`
	// Children are the instructions resolved for this component's viewports.
	Children []*NavigationInstruction `json:"children,omitempty"`

	Definition *Definition `json:"-"`
}

// ViewportState records which component occupies a named viewport.
type ViewportState struct {
	// Owner is the name of the component that declares the viewport.
	Owner string `json:"owner"`
	// Name is the viewport name.
	Name string `json:"name"`
	// Component is the name of the component currently loaded, empty when vacant.
	Component string `json:"component"`
	// InstanceID identifies the loaded instance.
	InstanceID uint64 `json:"instance_id"`
	// Path is the path segment(s) the component was loaded with.
	Path string `json:"path"`
	// Params are the route parameters the component was loaded with.
	Params map[string]string `json:"params,omitempty"`
}

// Snapshot is the committed outcome of the latest successful navigation.
type Snapshot struct {
	RouterID  string          `json:"router_id"`
	Path      string          `json:"path"`
	Viewports []ViewportState `json:"viewports"`
	UpdatedAt time.Time       `json:"updated_at"`
	// Sealed carries an opaque encrypted copy of the snapshot written by store
	// middleware; Path and Viewports are empty when it is set.
	Sealed []byte `json:"sealed,omitempty"`
}

// Clone returns a deep copy safe for independent mutation.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	next := *s
	if s.Sealed != nil {
		next.Sealed = append([]byte(nil), s.Sealed...)
	}
	next.Viewports = make([]ViewportState, len(s.Viewports))
	for i, vp := range s.Viewports {
		next.Viewports[i] = vp
		if vp.Params != nil {
			params := make(map[string]string, len(vp.Params))
			for k, v := range vp.Params {
				params[k] = v
			}
			next.Viewports[i].Params = params
		}
	}
	return &next
}
