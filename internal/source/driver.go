// Package source implements the suspendable producer/consumer rendezvous
// the coroutine-style source driver requires: a producer written as
// straight-line code that calls Yield at each emission point, and a
// consumer that calls Next once per scheduler tick. A goroutine blocked
// on an unbuffered channel send pins no worker while idle and requires no
// explicit suspend/resume primitive, so the rendezvous has no buffer and
// no dedicated OS thread.
package source

import (
	"context"

	"github.com/Framework-R-D/meld/internal/store"
)

// Producer is user code written in the iterator-like style: it calls
// Yield at each point it wants to hand a store to the graph, and returns
// when it has nothing more to produce.
type Producer func(ctx context.Context, y *Yielder) error

// Yielder is the handle a Producer calls Yield on. There is no buffer:
// Yield blocks until the consumer's next Next() call has taken the value.
type Yielder struct {
	out  chan *store.Store
	done <-chan struct{}
}

// Yield hands s to the consumer, blocking until it is taken. Returns
// context.Canceled if the driver was stopped before the handoff completed.
func (y *Yielder) Yield(ctx context.Context, s *store.Store) error {
	select {
	case y.out <- s:
		return nil
	case <-y.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Driver runs a single Producer on its own goroutine and exposes it to the
// consumer one store at a time. Only one producer and one consumer ever
// coexist; the zero-buffer channel enforces that no store is ever queued
// ahead of demand.
type Driver struct {
	producer Producer
	out      chan *store.Store
	done     chan struct{}
	started  bool

	errCh chan error
	err   error
}

// New wraps producer in a Driver. The producer does not start running
// until the first call to Next.
func New(producer Producer) *Driver {
	return &Driver{
		producer: producer,
		out:      make(chan *store.Store),
		done:     make(chan struct{}),
		errCh:    make(chan error, 1),
	}
}

func (d *Driver) start(ctx context.Context) {
	d.started = true
	go func() {
		defer close(d.out)
		y := &Yielder{out: d.out, done: d.done}
		d.errCh <- d.producer(ctx, y)
	}()
}

// Next returns the next store the producer yields, or ok=false once the
// producer body has returned (successfully or with a failure: check Err
// after the first false result).
func (d *Driver) Next(ctx context.Context) (*store.Store, bool) {
	if !d.started {
		d.start(ctx)
	}
	select {
	case s, ok := <-d.out:
		if !ok {
			select {
			case err := <-d.errCh:
				d.err = err
			default:
			}
			return nil, false
		}
		return s, true
	case <-ctx.Done():
		d.err = ctx.Err()
		return nil, false
	}
}

// Err returns the error the producer returned, if any, valid only after
// Next has returned ok=false.
func (d *Driver) Err() error {
	return d.err
}

// Stop releases a producer blocked in Yield without waiting for it to
// finish naturally; used when a fatal error elsewhere means the graph will
// never call Next again.
func (d *Driver) Stop() {
	close(d.done)
}
