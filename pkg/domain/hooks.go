package domain

import "context"

// HookName identifies a component lifecycle hook.
type HookName string

const (
	HookCanLoad             HookName = "canLoad"
	HookLoad                HookName = "load"
	HookBeforeBind          HookName = "beforeBind"
	HookAfterBind           HookName = "afterBind"
	HookAfterAttach         HookName = "afterAttach"
	HookAfterAttachChildren HookName = "afterAttachChildren"

	HookCanUnload           HookName = "canUnload"
	HookUnload              HookName = "unload"
	HookBeforeDetach        HookName = "beforeDetach"
	HookBeforeUnbind        HookName = "beforeUnbind"
	HookAfterUnbind         HookName = "afterUnbind"
	HookAfterUnbindChildren HookName = "afterUnbindChildren"
)

// IsGuard reports whether the hook is a navigation guard (canLoad, canUnload).
func (h HookName) IsGuard() bool {
	return h == HookCanLoad || h == HookCanUnload
}

// Awaitable is the deferred outcome of a hook. A nil Awaitable means the hook
// completed synchronously without error.
type Awaitable interface {
	// Done is closed once the outcome is settled.
	Done() <-chan struct{}
	// Err returns the failure, valid after Done is closed.
	Err() error
}

// Lifecycle hook contracts. A component instance implements whichever it needs.
type (
	CanLoader interface {
		CanLoad(ctx context.Context, nav *NavigationInstruction) Awaitable
	}
	Loader interface {
		Load(ctx context.Context, nav *NavigationInstruction) Awaitable
	}
	CanUnloader interface {
		CanUnload(ctx context.Context, nav *NavigationInstruction) Awaitable
	}
	Unloader interface {
		Unload(ctx context.Context, nav *NavigationInstruction) Awaitable
	}
	BeforeBinder interface {
		BeforeBind(ctx context.Context) Awaitable
	}
	AfterBinder interface {
		AfterBind(ctx context.Context) Awaitable
	}
	AfterAttacher interface {
		AfterAttach(ctx context.Context) Awaitable
	}
	AfterAttachChildrener interface {
		AfterAttachChildren(ctx context.Context) Awaitable
	}
	BeforeDetacher interface {
		BeforeDetach(ctx context.Context) Awaitable
	}
	BeforeUnbinder interface {
		BeforeUnbind(ctx context.Context) Awaitable
	}
	AfterUnbinder interface {
		AfterUnbind(ctx context.Context) Awaitable
	}
	AfterUnbindChildrener interface {
		AfterUnbindChildren(ctx context.Context) Awaitable
	}
)

// NavHook is the signature of the routing hooks (canLoad, load, canUnload, unload).
type NavHook func(ctx context.Context, nav *NavigationInstruction) Awaitable

// ViewHook is the signature of the bind/attach/detach/unbind hooks.
type ViewHook func(ctx context.Context) Awaitable

// Hooks implements every lifecycle hook interface through optional function fields.
// Unset fields complete synchronously.
type Hooks struct {
	OnCanLoad             NavHook
	OnLoad                NavHook
	OnCanUnload           NavHook
	OnUnload              NavHook
	OnBeforeBind          ViewHook
	OnAfterBind           ViewHook
	OnAfterAttach         ViewHook
	OnAfterAttachChildren ViewHook
	OnBeforeDetach        ViewHook
	OnBeforeUnbind        ViewHook
	OnAfterUnbind         ViewHook
	OnAfterUnbindChildren ViewHook
}

func callNav(fn NavHook, ctx context.Context, nav *NavigationInstruction) Awaitable {
	if fn == nil {
		return nil
	}
	return fn(ctx, nav)
}

func callView(fn ViewHook, ctx context.Context) Awaitable {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (h *Hooks) CanLoad(ctx context.Context, nav *NavigationInstruction) Awaitable {
	return callNav(h.OnCanLoad, ctx, nav)
}

func (h *Hooks) Load(ctx context.Context, nav *NavigationInstruction) Awaitable {
	return callNav(h.OnLoad, ctx, nav)
}

func (h *Hooks) CanUnload(ctx context.Context, nav *NavigationInstruction) Awaitable {
	return callNav(h.OnCanUnload, ctx, nav)
}

func (h *Hooks) Unload(ctx context.Context, nav *NavigationInstruction) Awaitable {
	return callNav(h.OnUnload, ctx, nav)
}

func (h *Hooks) BeforeBind(ctx context.Context) Awaitable {
	return callView(h.OnBeforeBind, ctx)
}

func (h *Hooks) AfterBind(ctx context.Context) Awaitable {
	return callView(h.OnAfterBind, ctx)
}

func (h *Hooks) AfterAttach(ctx context.Context) Awaitable {
	return callView(h.OnAfterAttach, ctx)
}

func (h *Hooks) AfterAttachChildren(ctx context.Context) Awaitable {
	return callView(h.OnAfterAttachChildren, ctx)
}

func (h *Hooks) BeforeDetach(ctx context.Context) Awaitable {
	return callView(h.OnBeforeDetach, ctx)
}

func (h *Hooks) BeforeUnbind(ctx context.Context) Awaitable {
	return callView(h.OnBeforeUnbind, ctx)
}

func (h *Hooks) AfterUnbind(ctx context.Context) Awaitable {
	return callView(h.OnAfterUnbind, ctx)
}

func (h *Hooks) AfterUnbindChildren(ctx context.Context) Awaitable {
	return callView(h.OnAfterUnbindChildren, ctx)
}

// InvokeHook calls the named hook on instance if it implements it.
// nav is ignored for the bind/attach/detach/unbind hooks.
func InvokeHook(ctx context.Context, instance any, hook HookName, nav *NavigationInstruction) Awaitable {
	switch hook {
	case HookCanLoad:
		if h, ok := instance.(CanLoader); ok {
			return h.CanLoad(ctx, nav)
		}
	case HookLoad:
		if h, ok := instance.(Loader); ok {
			return h.Load(ctx, nav)
		}
	case HookCanUnload:
		if h, ok := instance.(CanUnloader); ok {
			return h.CanUnload(ctx, nav)
		}
	case HookUnload:
		if h, ok := instance.(Unloader); ok {
			return h.Unload(ctx, nav)
		}
	case HookBeforeBind:
		if h, ok := instance.(BeforeBinder); ok {
			return h.BeforeBind(ctx)
		}
	case HookAfterBind:
		if h, ok := instance.(AfterBinder); ok {
			return h.AfterBind(ctx)
		}
	case HookAfterAttach:
		if h, ok := instance.(AfterAttacher); ok {
			return h.AfterAttach(ctx)
		}
	case HookAfterAttachChildren:
		if h, ok := instance.(AfterAttachChildrener); ok {
			return h.AfterAttachChildren(ctx)
		}
	case HookBeforeDetach:
		if h, ok := instance.(BeforeDetacher); ok {
			return h.BeforeDetach(ctx)
		}
	case HookBeforeUnbind:
		if h, ok := instance.(BeforeUnbinder); ok {
			return h.BeforeUnbind(ctx)
		}
	case HookAfterUnbind:
		if h, ok := instance.(AfterUnbinder); ok {
			return h.AfterUnbind(ctx)
		}
	case HookAfterUnbindChildren:
		if h, ok := instance.(AfterUnbindChildrener); ok {
			return h.AfterUnbindChildren(ctx)
		}
	}
	return nil
}
