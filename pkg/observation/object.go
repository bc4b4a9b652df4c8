// Package observation provides observable binding contexts, the dependency
// record used by tracked evaluations, and the target observers bindings write to.
package observation

import (
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/expr"
)

// Subscriber is notified with the new and previous value of a changed key or target.
type Subscriber func(newValue, oldValue any)

// Observable is an expr.Object whose keys can be subscribed to.
type Observable interface {
	expr.Object
	Subscribe(key string, fn Subscriber) (unsubscribe func())
}

type subscription struct {
	id uint64
	fn Subscriber
}

// subscriberList keeps subscribers in registration order.
type subscriberList struct {
	next uint64
	subs []subscription
}

func (l *subscriberList) add(fn Subscriber) uint64 {
	l.next++
	l.subs = append(l.subs, subscription{id: l.next, fn: fn})
	return l.next
}

func (l *subscriberList) remove(id uint64) {
	for i, s := range l.subs {
		if s.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}

func (l *subscriberList) snapshot() []Subscriber {
	out := make([]Subscriber, len(l.subs))
	for i, s := range l.subs {
		out[i] = s.fn
	}
	return out
}

// Object is an observable map-backed binding context.
// Subscribers run synchronously on the goroutine calling Set, in subscription order,
// and only when the new value differs from the stored one.
type Object struct {
	mu     sync.Mutex
	values map[string]any
	subs   map[string]*subscriberList
}

// NewObject creates an Object seeded with initial (copied).
func NewObject(initial map[string]any) *Object {
	o := &Object{
		values: make(map[string]any, len(initial)),
		subs:   make(map[string]*subscriberList),
	}
	for k, v := range initial {
		o.values[k] = v
	}
	return o
}

func (o *Object) Get(key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	old, existed := o.values[key]
	if existed && expr.Same(old, value) {
		o.mu.Unlock()
		return
	}
	o.values[key] = value
	var notify []Subscriber
	if l, ok := o.subs[key]; ok {
		notify = l.snapshot()
	}
	o.mu.Unlock()

	for _, fn := range notify {
		fn(value, old)
	}
}

func (o *Object) Subscribe(key string, fn Subscriber) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.subs[key]
	if !ok {
		l = &subscriberList{}
		o.subs[key] = l
	}
	id := l.add(fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if l, ok := o.subs[key]; ok {
				l.remove(id)
				if len(l.subs) == 0 {
					delete(o.subs, key)
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions on key.
func (o *Object) Subscribers(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l, ok := o.subs[key]; ok {
		return len(l.subs)
	}
	return 0
}

// Keys returns the stored keys in sorted order.
func (o *Object) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
