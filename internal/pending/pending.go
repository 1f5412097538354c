// Package pending runs delayed operations that the caller can observe while
// they are outstanding. A Gate admits one operation at a time, which is how
// repeated submissions of the same form are rejected.
package pending

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// ErrInFlight is returned by Start while the gate's previous operation is
// still pending.
var ErrInFlight = errors.New("operation already in progress")

// Gate admits a single outstanding operation. The zero value is ready to use.
type Gate struct {
	busy atomic.Bool
}

// Busy reports whether an operation is pending on g.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}

// Op is the handle of a started operation.
type Op[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Start runs fn after delay unless ctx is cancelled first, in which case the
// operation settles with the context error and fn is never called.
func Start[T any](ctx context.Context, g *Gate, delay time.Duration, fn func(context.Context) (T, error)) (*Op[T], error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}

	op := &Op[T]{done: make(chan struct{})}
	go func() {
		defer close(op.done)
		defer g.busy.Store(false)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			op.err = ctx.Err()
			return
		case <-timer.C:
		}
		op.val, op.err = fn(ctx)
	}()
	return op, nil
}

// Pending reports whether op has not settled yet.
func (op *Op[T]) Pending() bool {
	select {
	case <-op.done:
		return false
	default:
		return true
	}
}

// Done is closed once op settles.
func (op *Op[T]) Done() <-chan struct{} {
	return op.done
}

// Wait blocks until op settles or ctx ends, returning the result of the
// operation in the first case and the context error in the second.
func (op *Op[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-op.done:
		return op.val, op.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
