package observation

import "github.com/aretw0/arbor/pkg/expr"

type dependency struct {
	obj Observable
	key string
}

// Record tracks which observable keys an evaluation read and keeps exactly
// those subscribed. It implements expr.Tracker.
//
// Usage: Begin, evaluate with the record as tracker, End. End diffs the reads
// against the previous pass, dropping stale subscriptions and adding new ones.
type Record struct {
	onChange func()
	deps     map[dependency]func()
	reads    map[dependency]struct{}
}

// NewRecord creates a record that calls onChange whenever a tracked key changes.
func NewRecord(onChange func()) *Record {
	return &Record{
		onChange: onChange,
		deps:     make(map[dependency]func()),
	}
}

// Begin starts a tracking pass.
func (r *Record) Begin() {
	r.reads = make(map[dependency]struct{})
}

// Observe implements expr.Tracker. Reads outside Begin/End and reads of
// non-observable objects are ignored.
func (r *Record) Observe(obj expr.Object, key string) {
	if r.reads == nil {
		return
	}
	o, ok := obj.(Observable)
	if !ok {
		return
	}
	r.reads[dependency{obj: o, key: key}] = struct{}{}
}

// End finishes a tracking pass and reconciles subscriptions.
func (r *Record) End() {
	if r.reads == nil {
		return
	}
	for d, unsubscribe := range r.deps {
		if _, ok := r.reads[d]; !ok {
			unsubscribe()
			delete(r.deps, d)
		}
	}
	for d := range r.reads {
		if _, ok := r.deps[d]; ok {
			continue
		}
		r.deps[d] = d.obj.Subscribe(d.key, func(_, _ any) {
			r.onChange()
		})
	}
	r.reads = nil
}

// Clear drops every subscription.
func (r *Record) Clear() {
	for d, unsubscribe := range r.deps {
		unsubscribe()
		delete(r.deps, d)
	}
	r.reads = nil
}

// Count returns the number of subscribed dependencies.
func (r *Record) Count() int {
	return len(r.deps)
}
