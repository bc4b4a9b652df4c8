package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSnapshotNotFound is returned when no navigation snapshot is stored for a router ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrGuardRejected is returned (wrapped) when a canLoad or canUnload guard refuses a navigation.
var ErrGuardRejected = errors.New("guard rejected navigation")

// ErrHookTimeout is returned when an awaited lifecycle hook does not settle in time.
var ErrHookTimeout = errors.New("lifecycle hook timed out")

// ErrAmbiguousRoute is returned when two configured children of a component share a path.
var ErrAmbiguousRoute = errors.New("ambiguous route")

// ErrIllegalTransition is returned when the navigation state machine is asked to move along an undefined edge.
var ErrIllegalTransition = errors.New("illegal navigation state transition")

// ErrInvalidPath is returned when a navigation path cannot be parsed.
var ErrInvalidPath = errors.New("invalid navigation path")

// ErrRouterNotStarted is returned when Load is called before the root component is activated.
var ErrRouterNotStarted = errors.New("router not started")

// RouteMatchError reports a path segment that could not be matched against the route tree.
// Ancestors holds the component names traversed before the failing segment, root first.
type RouteMatchError struct {
	Segment   string
	Ancestors []string
	Reason    string
}

func (e *RouteMatchError) Error() string {
	msg := fmt.Sprintf("'%s' did not match any route under '%s'", e.Segment, strings.Join(e.Ancestors, "/"))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// HookRejection reports a lifecycle hook that failed or refused during a navigation.
type HookRejection struct {
	Component string
	Hook      HookName
	Err       error
}

func (e *HookRejection) Error() string {
	return fmt.Sprintf("hook %s of component '%s' rejected navigation: %v", e.Hook, e.Component, e.Err)
}

func (e *HookRejection) Unwrap() error {
	return e.Err
}

// InvariantViolation reports an internal inconsistency of the binding engine.
// It indicates a caller bug and is raised with panic.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}
