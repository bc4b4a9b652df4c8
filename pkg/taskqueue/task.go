package taskqueue

import "sync"

// Status is the lifecycle stage of a Task.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	}
	return "unknown"
}

// Task is a unit of scheduled work. It runs at most once and can be canceled
// until it starts running.
type Task struct {
	ID    uint64
	Queue QueueKind

	mu       sync.Mutex
	status   Status
	callback func()
}

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Pending reports whether the task is still waiting to run.
func (t *Task) Pending() bool {
	return t.Status() == StatusPending
}

// Cancel prevents a pending task from running. It returns false if the task
// already started, finished or was canceled.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.status = StatusCanceled
	t.callback = nil
	return true
}

// run executes the callback unless the task was canceled. It reports whether
// the callback ran.
func (t *Task) run() bool {
	t.mu.Lock()
	if t.status != StatusPending {
		t.mu.Unlock()
		return false
	}
	t.status = StatusRunning
	fn := t.callback
	t.callback = nil
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.status = StatusCompleted
		t.mu.Unlock()
	}()
	fn()
	return true
}
