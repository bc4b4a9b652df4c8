package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNavigationStart EventType = "navigation_start"
	EventNavigationEnd   EventType = "navigation_end"
	EventNavigationError EventType = "navigation_error"
	EventHookInvoke      EventType = "hook_invoke"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RouterID  string    `json:"router_id"`
}

// NavigationEvent describes a navigation attempt.
type NavigationEvent struct {
	EventBase
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// HookEvent describes a lifecycle hook invocation.
type HookEvent struct {
	EventBase
	Component  string   `json:"component"`
	InstanceID uint64   `json:"instance_id"`
	Hook       HookName `json:"hook"`
}

// RouterHooks defines callbacks for router observability.
type RouterHooks struct {
	OnNavigationStart func(context.Context, *NavigationEvent)
	OnNavigationEnd   func(context.Context, *NavigationEvent)
	OnNavigationError func(context.Context, *NavigationEvent)
	OnHook            func(context.Context, *HookEvent)
}

// Merge returns hooks that call h first and then other.
func (h RouterHooks) Merge(other RouterHooks) RouterHooks {
	return RouterHooks{
		OnNavigationStart: chainNav(h.OnNavigationStart, other.OnNavigationStart),
		OnNavigationEnd:   chainNav(h.OnNavigationEnd, other.OnNavigationEnd),
		OnNavigationError: chainNav(h.OnNavigationError, other.OnNavigationError),
		OnHook: func(ctx context.Context, e *HookEvent) {
			if h.OnHook != nil {
				h.OnHook(ctx, e)
			}
			if other.OnHook != nil {
				other.OnHook(ctx, e)
			}
		},
	}
}

func chainNav(a, b func(context.Context, *NavigationEvent)) func(context.Context, *NavigationEvent) {
	return func(ctx context.Context, e *NavigationEvent) {
		if a != nil {
			a(ctx, e)
		}
		if b != nil {
			b(ctx, e)
		}
	}
}
