// Package binding keeps a target observer synchronized with a source expression.
package binding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/expr"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/observation"
	"github.com/aretw0/arbor/pkg/taskqueue"
)

// ErrInvalidMode is returned for an empty or contradictory binding mode.
var ErrInvalidMode = errors.New("invalid binding mode")

// Binding connects a source expression to a target observer.
//
// A Binding is driven from a single goroutine: Bind, Unbind, HandleChange and
// the scheduler flushes that run its tasks must not be called concurrently.
type Binding struct {
	source expr.Expression
	target observation.TargetObserver
	mode   Mode

	scheduler *taskqueue.Scheduler
	ids       *ids.Registry
	logger    *slog.Logger

	scope             *expr.Scope
	record            *observation.Record
	unsubscribeTarget func()
	value             any
	task              *taskqueue.Task
	bound             bool
}

// Option configures a Binding.
type Option func(*Binding)

// WithScheduler sets the scheduler used for render and microtask writes.
// Default is the scheduler of the calling goroutine (taskqueue.Current).
func WithScheduler(s *taskqueue.Scheduler) Option {
	return func(b *Binding) {
		b.scheduler = s
	}
}

// WithIDs sets the registry that stamps layout writes.
func WithIDs(r *ids.Registry) Option {
	return func(b *Binding) {
		b.ids = r
	}
}

// WithLogger configures a logger for the Binding.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binding) {
		b.logger = logger
	}
}

// New validates mode and creates an unbound Binding.
func New(source expr.Expression, target observation.TargetObserver, mode Mode, opts ...Option) (*Binding, error) {
	if source == nil || target == nil {
		return nil, errors.New("binding requires a source expression and a target")
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if mode&FromView != 0 {
		if _, ok := source.(expr.Assignable); !ok {
			return nil, fmt.Errorf("%s binding on %q: %w", mode, source.String(), expr.ErrNotAssignable)
		}
	}

	b := &Binding{
		source: source,
		target: target,
		mode:   mode,
		ids:    ids.Default,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.scheduler == nil {
		b.scheduler = taskqueue.Current()
	}
	b.record = observation.NewRecord(func() {
		b.HandleChange(nil, nil, UpdateTarget)
	})
	return b, nil
}

// Mode returns the binding mode.
func (b *Binding) Mode() Mode { return b.mode }

// Value returns the last value propagated in either direction.
func (b *Binding) Value() any { return b.value }

// IsBound reports whether the binding is active.
func (b *Binding) IsBound() bool { return b.bound }

// PendingTask returns the scheduled target write, nil if none.
func (b *Binding) PendingTask() *taskqueue.Task {
	if b.task != nil && !b.task.Pending() {
		b.task = nil
	}
	return b.task
}

// Bind activates the binding against scope and performs the initial write.
// Binding again to the same scope is a no-op; a different scope rebinds.
func (b *Binding) Bind(scope *expr.Scope) error {
	if b.bound {
		if b.scope == scope {
			return nil
		}
		b.Unbind()
	}
	b.scope = scope
	b.bound = true

	switch {
	case b.mode&OneTime != 0:
		v, err := b.source.Evaluate(scope, nil)
		if err != nil {
			b.Unbind()
			return fmt.Errorf("bind %q: %w", b.source.String(), err)
		}
		b.updateTarget(v, true)
	case b.mode&ToView != 0:
		v, err := b.evaluate()
		if err != nil {
			b.Unbind()
			return fmt.Errorf("bind %q: %w", b.source.String(), err)
		}
		b.updateTarget(v, true)
	}

	if b.mode&FromView != 0 {
		if b.mode&ToView == 0 {
			b.value = b.target.Value()
		}
		b.unsubscribeTarget = b.target.Subscribe(func(newValue, oldValue any) {
			b.HandleChange(newValue, oldValue, UpdateSource)
		})
	}
	return nil
}

// Unbind cancels any pending write and drops every subscription.
func (b *Binding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	if b.task != nil {
		b.task.Cancel()
		b.task = nil
	}
	b.record.Clear()
	if b.unsubscribeTarget != nil {
		b.unsubscribeTarget()
		b.unsubscribeTarget = nil
	}
	b.scope = nil
	b.value = nil
}

// HandleChange propagates a change notification. With UpdateTarget the source
// is re-evaluated (newValue is ignored) and written to the target; with
// UpdateSource newValue is assigned into the source expression. Values equal
// to the last propagated one are dropped.
//
// Calling it with neither flag is a caller bug and panics with *domain.InvariantViolation.
func (b *Binding) HandleChange(newValue, oldValue any, flags Flags) {
	if flags&(UpdateTarget|UpdateSource) == 0 {
		panic(&domain.InvariantViolation{
			Op:     "binding.HandleChange",
			Detail: fmt.Sprintf("change on %q carries neither UpdateTarget nor UpdateSource (flags=%d)", b.source.String(), flags),
		})
	}
	if !b.bound {
		return
	}

	if flags&UpdateTarget != 0 {
		if b.mode&ToView == 0 {
			return
		}
		v, err := b.evaluate()
		if err != nil {
			b.logger.Error("binding evaluation failed", "expr", b.source.String(), "error", err)
			return
		}
		if expr.Same(v, b.value) {
			return
		}
		b.updateTarget(v, false)
		return
	}

	if b.mode&FromView == 0 || expr.Same(newValue, b.value) {
		return
	}
	b.value = newValue
	if err := b.source.(expr.Assignable).Assign(b.scope, newValue); err != nil {
		b.logger.Error("binding source assignment failed", "expr", b.source.String(), "error", err)
	}
}

func (b *Binding) evaluate() (any, error) {
	b.record.Begin()
	defer b.record.End()
	return b.source.Evaluate(b.scope, b.record)
}

func (b *Binding) updateTarget(v any, initial bool) {
	b.value = v

	// a newer value always supersedes a scheduled one
	if b.task != nil {
		b.task.Cancel()
		b.task = nil
	}

	switch b.target.Kind() {
	case observation.KindLayout:
		stamp := b.ids.Next(ids.KeyTargetUpdate)
		var task *taskqueue.Task
		task = b.scheduler.QueueRenderTask(func() {
			if b.task == task {
				b.task = nil
			}
			if st, ok := b.target.(observation.StampedTarget); ok {
				if !st.SetValueAt(v, stamp) {
					b.logger.Debug("stale target update dropped", "expr", b.source.String(), "stamp", stamp)
				}
				return
			}
			b.target.SetValue(v)
		})
		b.task = task
	case observation.KindNode:
		b.target.SetValue(v)
		if initial {
			var task *taskqueue.Task
			task = b.scheduler.QueueMicroTask(func() {
				if b.task == task {
					b.task = nil
				}
				b.target.SetValue(v)
			})
			b.task = task
		}
	default:
		b.target.SetValue(v)
	}
}
