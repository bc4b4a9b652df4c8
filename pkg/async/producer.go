package async

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Step is one lazily invoked unit of work, typically a single hook call.
type Step struct {
	// Label names the step in timeout errors, e.g. "a01.canLoad".
	Label string
	Run   func(ctx context.Context) domain.Awaitable
	// Commit, when set, runs on the merging goroutine once the awaitable
	// returned by Run has settled successfully. Its error fails the step.
	Commit func() error
}

// Producer yields steps until it reports false. Producers are finite and
// single-use: build a new one to replay the sequence.
type Producer func() (Step, bool)

// Sequence yields steps in order.
func Sequence(steps ...Step) Producer {
	i := 0
	return func() (Step, bool) {
		if i >= len(steps) {
			return Step{}, false
		}
		s := steps[i]
		i++
		return s, true
	}
}

// Concat drains each producer in turn. Nil producers are skipped.
func Concat(ps ...Producer) Producer {
	i := 0
	return func() (Step, bool) {
		for i < len(ps) {
			if ps[i] != nil {
				if s, ok := ps[i](); ok {
					return s, true
				}
			}
			i++
		}
		return Step{}, false
	}
}

// Lazy defers building a producer until its first step is requested.
func Lazy(build func() Producer) Producer {
	var p Producer
	return func() (Step, bool) {
		if p == nil {
			p = build()
			if p == nil {
				p = Sequence()
			}
		}
		return p()
	}
}

// Drain runs every step of p in order, waiting on each step's awaitable.
func Drain(ctx context.Context, timeout time.Duration, p Producer) error {
	return Interleave(ctx, timeout, p)
}

type lane struct {
	next    Producer
	pending domain.Awaitable
	commit  func() error
	label   string
	since   time.Time
	done    bool
}

// settle clears the lane's settled step, committing it on success.
func (l *lane) settle() error {
	err := l.pending.Err()
	if err == nil && l.commit != nil {
		err = l.commit()
	}
	l.pending, l.commit = nil, nil
	return err
}

// abandon forgets a step that will not be waited on any longer.
func (l *lane) abandon() {
	l.pending, l.commit = nil, nil
}

// Interleave merges producers round-robin: each pass advances every producer
// whose previous step has settled by one step, in argument order. A producer
// is suspended while its current step is pending; when every live producer is
// suspended Interleave blocks until one settles.
//
// The first failing step aborts the merge. Steps already pending on other
// producers are still awaited, and committed if they succeed, before that
// first error is returned. A positive timeout bounds how long any single step
// may stay pending (domain.ErrHookTimeout).
func Interleave(ctx context.Context, timeout time.Duration, ps ...Producer) error {
	lanes := make([]*lane, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			lanes = append(lanes, &lane{next: p})
		}
	}

	for {
		progressed := false
		live := 0
		for _, l := range lanes {
			if l.pending != nil {
				if !Settled(l.pending) {
					live++
					continue
				}
				if err := l.settle(); err != nil {
					return abort(ctx, timeout, lanes, err)
				}
			}
			if l.done {
				continue
			}
			step, ok := l.next()
			if !ok {
				l.done = true
				continue
			}
			progressed = true
			live++
			l.pending, l.commit = step.Run(ctx), step.Commit
			l.label, l.since = step.Label, time.Now()
			if l.pending == nil {
				var err error
				if l.commit != nil {
					err = l.commit()
				}
				l.commit = nil
				if err != nil {
					return abort(ctx, timeout, lanes, err)
				}
			}
		}

		if live == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if progressed {
			continue
		}
		if expired, err := waitAny(ctx, timeout, lanes); err != nil {
			if expired == nil {
				return err
			}
			expired.abandon()
			return abort(ctx, timeout, lanes, err)
		}
	}
}

// abort waits for the steps still pending on other lanes to settle and
// returns err. Their own failures are dropped; successes are committed.
func abort(ctx context.Context, timeout time.Duration, lanes []*lane, err error) error {
	for {
		waiting := false
		for _, l := range lanes {
			if l.pending == nil {
				continue
			}
			if Settled(l.pending) {
				_ = l.settle()
				continue
			}
			waiting = true
		}
		if !waiting {
			return err
		}
		expired, werr := waitAny(ctx, timeout, lanes)
		if werr != nil {
			if expired == nil {
				return err
			}
			expired.abandon()
		}
	}
}

// waitAny blocks until one pending lane settles, ctx ends or the oldest
// pending step times out. On timeout the expired lane is returned.
func waitAny(ctx context.Context, timeout time.Duration, lanes []*lane) (*lane, error) {
	cases := []reflect.SelectCase{{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}}

	var oldest *lane
	for _, l := range lanes {
		if l.pending == nil {
			continue
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(l.pending.Done())})
		if oldest == nil || l.since.Before(oldest.since) {
			oldest = l
		}
	}

	timerIdx := -1
	if timeout > 0 && oldest != nil {
		timer := time.NewTimer(time.Until(oldest.since.Add(timeout)))
		defer timer.Stop()
		timerIdx = len(cases)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
	}

	chosen, _, _ := reflect.Select(cases)
	switch chosen {
	case 0:
		return nil, ctx.Err()
	case timerIdx:
		return oldest, fmt.Errorf("%s: %w", oldest.label, domain.ErrHookTimeout)
	}
	return nil, nil
}
