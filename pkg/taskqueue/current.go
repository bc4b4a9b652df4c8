package taskqueue

import (
	"sync"

	"github.com/petermattis/goid"
)

var schedulers sync.Map

// Current returns the scheduler bound to the calling goroutine, creating it on
// first use. It keeps the single-threaded model explicit: work queued from one
// goroutine is flushed by that goroutine.
func Current() *Scheduler {
	gid := goid.Get()

	if s, ok := schedulers.Load(gid); ok {
		return s.(*Scheduler)
	}

	s := New()
	actual, _ := schedulers.LoadOrStore(gid, s)
	return actual.(*Scheduler)
}

// Reset discards the calling goroutine's scheduler and any work still queued on it.
func Reset() {
	schedulers.Delete(goid.Get())
}
