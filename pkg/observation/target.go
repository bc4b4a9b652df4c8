package observation

import (
	"sync"

	"github.com/aretw0/arbor/pkg/expr"
)

// Kind classifies how a binding must schedule writes to a target.
type Kind int

const (
	// KindProperty targets are written immediately.
	KindProperty Kind = iota
	// KindLayout targets affect geometry; writes are coalesced per render tick.
	KindLayout
	// KindNode targets are structural; the initial write is applied eagerly
	// and re-applied from a microtask.
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindLayout:
		return "layout"
	case KindNode:
		return "node"
	}
	return "property"
}

// TargetObserver is the write side of a binding.
type TargetObserver interface {
	Kind() Kind
	Value() any
	// SetValue writes a value coming from the binding source. It does not notify subscribers.
	SetValue(v any)
	// Subscribe registers for view-originated changes (see PropertyObserver.Change).
	Subscribe(fn Subscriber) (unsubscribe func())
}

// StampedTarget accepts writes tagged with a monotonically increasing stamp
// and discards any write older than the last one applied.
type StampedTarget interface {
	TargetObserver
	SetValueAt(v any, stamp uint64) bool
	LastUpdate() uint64
}

// Option configures a PropertyObserver.
type Option func(*PropertyObserver)

// WithKind sets the observer kind. Default is KindProperty.
func WithKind(k Kind) Option {
	return func(p *PropertyObserver) {
		p.kind = k
	}
}

// OnWrite registers a sink called after every applied write, e.g. to push the
// value into an external view.
func OnWrite(fn func(v any)) Option {
	return func(p *PropertyObserver) {
		p.sink = fn
	}
}

// PropertyObserver is an in-memory target property. It records every applied
// write so callers can assert how many times a binding touched the view.
type PropertyObserver struct {
	mu         sync.Mutex
	kind       Kind
	value      any
	lastUpdate uint64
	writes     []any
	subs       subscriberList
	sink       func(any)
}

// NewProperty creates a target observer holding initial.
func NewProperty(initial any, opts ...Option) *PropertyObserver {
	p := &PropertyObserver{value: initial}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PropertyObserver) Kind() Kind {
	return p.kind
}

func (p *PropertyObserver) Value() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *PropertyObserver) SetValue(v any) {
	p.mu.Lock()
	p.value = v
	p.writes = append(p.writes, v)
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink(v)
	}
}

// SetValueAt applies v only when stamp is newer than the last applied stamp.
func (p *PropertyObserver) SetValueAt(v any, stamp uint64) bool {
	p.mu.Lock()
	if stamp <= p.lastUpdate {
		p.mu.Unlock()
		return false
	}
	p.lastUpdate = stamp
	p.mu.Unlock()
	p.SetValue(v)
	return true
}

func (p *PropertyObserver) LastUpdate() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastUpdate
}

// Writes returns a copy of every value written through SetValue, in order.
func (p *PropertyObserver) Writes() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.writes...)
}

// Change simulates a view-originated change: the value is stored and
// subscribers are notified when it differs from the current one.
func (p *PropertyObserver) Change(v any) {
	p.mu.Lock()
	old := p.value
	if expr.Same(old, v) {
		p.mu.Unlock()
		return
	}
	p.value = v
	notify := p.subs.snapshot()
	p.mu.Unlock()

	for _, fn := range notify {
		fn(v, old)
	}
}

func (p *PropertyObserver) Subscribe(fn Subscriber) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.subs.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.subs.remove(id)
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (p *PropertyObserver) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs.subs)
}
