// Package thread queues work that must run on the render thread.
//
// GPU resources may only be created by the goroutine that owns the device.
// Background goroutines hand their creation calls to a Dispatcher and block
// until the render thread runs them during its next Pump.
package thread

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned for work submitted to, or still queued in, a
// closed Dispatcher.
var ErrClosed = errors.New("thread: dispatcher closed")

// DefaultQueueSize is the number of calls that can wait before Do blocks
// on enqueue.
const DefaultQueueSize = 64

type task struct {
	fn  func() error
	res chan error
}

// Dispatcher is a FIFO of calls executed by Pump. Do is safe for
// concurrent use; Pump must only be called by the render thread.
type Dispatcher struct {
	queue  chan task
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once

	executed atomic.Uint64
}

// New returns a dispatcher with room for size queued calls. A size of 0
// or less uses DefaultQueueSize.
func New(size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		queue: make(chan task, size),
		done:  make(chan struct{}),
	}
}

// Do queues fn and waits until the render thread has run it, returning
// fn's error. If ctx ends first Do returns ctx.Err(); fn may still run
// later. Calling Do from the render thread deadlocks.
func (d *Dispatcher) Do(ctx context.Context, fn func() error) error {
	if d.closed.Load() {
		return ErrClosed
	}
	t := task{fn: fn, res: make(chan error, 1)}
	select {
	case d.queue <- t:
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		// The task may have completed just before Close.
		select {
		case err := <-t.res:
			return err
		default:
			return ErrClosed
		}
	}
}

// Pump runs every call queued so far and returns how many ran. Calls
// queued while Pump is running wait for the next Pump.
func (d *Dispatcher) Pump() int {
	if d.closed.Load() {
		return 0
	}
	n := len(d.queue)
	for i := 0; i < n; i++ {
		select {
		case t := <-d.queue:
			t.res <- run(t.fn)
			d.executed.Add(1)
		default:
			return i
		}
	}
	return n
}

// run calls fn, turning a panic into an error so one bad upload does not
// take down the render loop.
func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

// PanicError reports a panic raised by a dispatched call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "thread: dispatched call panicked"
}

// Pending returns the number of queued calls.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// Executed returns the total number of calls run by Pump.
func (d *Dispatcher) Executed() uint64 { return d.executed.Load() }

// Close stops the dispatcher. Queued calls are not run; their callers
// receive ErrClosed. Close is idempotent.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.done)
		for {
			select {
			case t := <-d.queue:
				t.res <- ErrClosed
			default:
				return
			}
		}
	})
}
