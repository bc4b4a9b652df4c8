// Package async provides awaitable hook outcomes and the lazy step producers
// the router merges to order lifecycle hooks across components.
package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Promise is a settable domain.Awaitable. The zero value is not usable; use NewPromise.
type Promise struct {
	done chan struct{}
	once sync.Once
	err  error
}

var _ domain.Awaitable = (*Promise)(nil)

// NewPromise creates an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolve settles the promise successfully. Only the first settlement counts.
func (p *Promise) Resolve() {
	p.settle(nil)
}

// Reject settles the promise with err. Only the first settlement counts.
func (p *Promise) Reject(err error) {
	p.settle(err)
}

func (p *Promise) settle(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

func (p *Promise) Done() <-chan struct{} {
	return p.done
}

func (p *Promise) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Resolved returns an already settled, successful awaitable.
func Resolved() *Promise {
	p := NewPromise()
	p.Resolve()
	return p
}

// Rejected returns an already settled awaitable failing with err.
func Rejected(err error) *Promise {
	p := NewPromise()
	p.Reject(err)
	return p
}

// Go runs fn on a new goroutine and settles the returned promise with its result.
func Go(fn func() error) *Promise {
	p := NewPromise()
	go func() {
		p.settle(fn())
	}()
	return p
}

// Delay returns a promise resolved after d.
func Delay(d time.Duration) *Promise {
	p := NewPromise()
	time.AfterFunc(d, p.Resolve)
	return p
}

// Refuse builds the error a guard hook rejects with.
func Refuse(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrGuardRejected, reason)
}

// Settled reports whether a has completed. A nil awaitable is settled.
func Settled(a domain.Awaitable) bool {
	if a == nil {
		return true
	}
	select {
	case <-a.Done():
		return true
	default:
		return false
	}
}

// Wait blocks until a settles and returns its error. A positive timeout bounds
// the wait with domain.ErrHookTimeout.
func Wait(ctx context.Context, a domain.Awaitable, timeout time.Duration) error {
	if a == nil {
		return nil
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-a.Done():
		return a.Err()
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return domain.ErrHookTimeout
	}
}

type mapped struct {
	domain.Awaitable
	fn func(error) error
}

func (m *mapped) Err() error {
	if err := m.Awaitable.Err(); err != nil {
		return m.fn(err)
	}
	return nil
}

// MapErr returns an awaitable settling with a but whose failure is passed through fn.
// A nil awaitable stays nil.
func MapErr(a domain.Awaitable, fn func(error) error) domain.Awaitable {
	if a == nil {
		return nil
	}
	return &mapped{Awaitable: a, fn: fn}
}
