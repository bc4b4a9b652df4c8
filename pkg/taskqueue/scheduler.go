package taskqueue

import (
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ids"
)

// QueueKind selects one of the two scheduler queues.
type QueueKind int

const (
	// MicroTask tasks run before control returns to the host loop.
	MicroTask QueueKind = iota
	// RenderTask tasks run once per rendering tick.
	RenderTask
)

func (k QueueKind) String() string {
	if k == RenderTask {
		return "render"
	}
	return "microtask"
}

// Scheduler orders pending work into a microtask queue and a render queue.
// Both queues are FIFO. Callbacks run on the goroutine that flushes.
type Scheduler struct {
	mu     sync.Mutex
	micro  []*Task
	render []*Task
	ticks  uint64

	ids    *ids.Registry
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIDs sets the registry task IDs are drawn from.
func WithIDs(r *ids.Registry) Option {
	return func(s *Scheduler) {
		s.ids = r
	}
}

// WithLogger configures a logger for the Scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		ids:    ids.Default,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueueMicroTask appends fn to the microtask queue.
func (s *Scheduler) QueueMicroTask(fn func()) *Task {
	return s.enqueue(MicroTask, fn)
}

// QueueRenderTask appends fn to the render queue.
func (s *Scheduler) QueueRenderTask(fn func()) *Task {
	return s.enqueue(RenderTask, fn)
}

func (s *Scheduler) enqueue(kind QueueKind, fn func()) *Task {
	t := &Task{
		ID:       s.ids.Next(ids.KeyTask),
		Queue:    kind,
		callback: fn,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == RenderTask {
		s.render = append(s.render, t)
	} else {
		s.micro = append(s.micro, t)
	}
	return t
}

// FlushMicroTasks runs queued microtasks, including those queued while
// flushing, until the queue is empty. It returns the number of callbacks run.
func (s *Scheduler) FlushMicroTasks() int {
	ran := 0
	for {
		s.mu.Lock()
		if len(s.micro) == 0 {
			s.mu.Unlock()
			return ran
		}
		t := s.micro[0]
		s.micro[0] = nil
		s.micro = s.micro[1:]
		s.mu.Unlock()

		if t.run() {
			ran++
		}
	}
}

// Tick performs one rendering pass: microtasks are drained, the render tasks
// queued before the tick run in order (each followed by a microtask drain),
// and render tasks queued during the tick wait for the next one.
func (s *Scheduler) Tick() int {
	ran := s.FlushMicroTasks()

	s.mu.Lock()
	batch := s.render
	s.render = nil
	s.ticks++
	tick := s.ticks
	s.mu.Unlock()

	for _, t := range batch {
		if t.run() {
			ran++
		}
		ran += s.FlushMicroTasks()
	}

	s.logger.Debug("render tick", "tick", tick, "tasks", len(batch), "ran", ran)
	return ran
}

// Ticks returns the number of completed render ticks.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Pending returns how many tasks wait in each queue, canceled ones included
// until they are dequeued.
func (s *Scheduler) Pending() (micro, render int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.micro), len(s.render)
}

// Drain flushes both queues until no work is left.
func (s *Scheduler) Drain() int {
	ran := 0
	for {
		n := s.Tick()
		ran += n
		micro, render := s.Pending()
		if micro == 0 && render == 0 {
			return ran
		}
	}
}
