package taskqueue

import (
	"sync"
	"testing"

	"github.com/aretw0/arbor/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(WithIDs(ids.NewRegistry()))
}

func TestScheduler_MicroTasksAreFIFO(t *testing.T) {
	s := newTestScheduler()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		s.QueueMicroTask(func() { order = append(order, i) })
	}

	ran := s.FlushMicroTasks()

	assert.Equal(t, 3, ran)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestScheduler_MicroTasksQueuedWhileFlushingRunInSameFlush(t *testing.T) {
	s := newTestScheduler()
	var order []string
	s.QueueMicroTask(func() {
		order = append(order, "outer")
		s.QueueMicroTask(func() { order = append(order, "inner") })
	})

	s.FlushMicroTasks()

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestScheduler_CanceledTaskNeverRuns(t *testing.T) {
	s := newTestScheduler()
	ran := false
	task := s.QueueRenderTask(func() { ran = true })

	require.True(t, task.Cancel())
	assert.False(t, task.Cancel(), "second cancel is a no-op")

	s.Tick()

	assert.False(t, ran)
	assert.Equal(t, StatusCanceled, task.Status())
}

func TestScheduler_TaskRunsOnce(t *testing.T) {
	s := newTestScheduler()
	count := 0
	task := s.QueueMicroTask(func() { count++ })

	s.FlushMicroTasks()
	s.FlushMicroTasks()

	assert.Equal(t, 1, count)
	assert.Equal(t, StatusCompleted, task.Status())
	assert.False(t, task.Cancel(), "completed task cannot be canceled")
}

func TestScheduler_TickDrainsMicroTasksBeforeRender(t *testing.T) {
	s := newTestScheduler()
	var order []string
	s.QueueRenderTask(func() {
		order = append(order, "render-1")
		s.QueueMicroTask(func() { order = append(order, "micro-from-render") })
		s.QueueRenderTask(func() { order = append(order, "render-next-tick") })
	})
	s.QueueMicroTask(func() { order = append(order, "micro") })

	s.Tick()
	assert.Equal(t, []string{"micro", "render-1", "micro-from-render"}, order)

	micro, render := s.Pending()
	assert.Equal(t, 0, micro)
	assert.Equal(t, 1, render)

	s.Tick()
	assert.Equal(t, "render-next-tick", order[len(order)-1])
	assert.Equal(t, uint64(2), s.Ticks())
}

func TestScheduler_Drain(t *testing.T) {
	s := newTestScheduler()
	count := 0
	s.QueueRenderTask(func() {
		count++
		s.QueueRenderTask(func() { count++ })
	})

	s.Drain()

	assert.Equal(t, 2, count)
}

func TestCurrent_IsPerGoroutine(t *testing.T) {
	Reset()
	a := Current()
	assert.Same(t, a, Current())

	var other *Scheduler
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = Current()
		Reset()
	}()
	wg.Wait()

	assert.NotSame(t, a, other)

	Reset()
	assert.NotSame(t, a, Current())
	Reset()
}
