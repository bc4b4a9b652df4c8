// Package ids provides monotonic counters scoped per key.
//
// Counters are process-wide through the Default registry but every key is
// independent, and tests reset them explicitly with Reset or ResetAll.
package ids

import "sync"

// Keys used across the module.
const (
	KeyComponent    = "component"
	KeyTask         = "task"
	KeyTargetUpdate = "target.update"
)

// Registry holds one counter per key. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]uint64)}
}

// Next increments the counter for key and returns the new value. The first value is 1.
func (r *Registry) Next(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key]++
	return r.counters[key]
}

// Peek returns the last value handed out for key, 0 if none.
func (r *Registry) Peek(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// Reset restarts the counter for key.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counters, key)
}

// ResetAll restarts every counter.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = make(map[string]uint64)
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Next increments the Default counter for key.
func Next(key string) uint64 { return Default.Next(key) }

// Reset restarts the Default counter for key.
func Reset(key string) { Default.Reset(key) }

// ResetAll restarts every Default counter.
func ResetAll() { Default.ResetAll() }
