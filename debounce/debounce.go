// Package debounce collapses bursts of calls into a single invocation.
//
// A Debouncer runs in one of two modes. In Trailing mode every call re-arms a
// timer and the action fires once, with the last argument, after wait has
// elapsed without another call. In Leading mode the first call after a quiet
// period fires immediately and later calls inside the wait window are dropped.
package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Mode int

const (
	Trailing Mode = iota
	Leading
)

func (m Mode) String() string {
	switch m {
	case Trailing:
		return "trailing"
	case Leading:
		return "leading"
	}
	return "unknown"
}

type Option func(*options)

type options struct {
	mode  Mode
	clock clockwork.Clock
}

func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

func WithLeading() Option {
	return WithMode(Leading)
}

// WithClock replaces the real clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Debouncer owns at most one pending invocation at a time. It is safe for
// concurrent use.
type Debouncer[T any] struct {
	action func(T)
	wait   time.Duration
	mode   Mode
	clock  clockwork.Clock

	mu      sync.Mutex
	pending *invocation[T]
	gen     uint64
}

type invocation[T any] struct {
	timer clockwork.Timer
	arg   T
	gen   uint64
}

func New[T any](action func(T), wait time.Duration, opts ...Option) *Debouncer[T] {
	o := options{
		mode:  Trailing,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Debouncer[T]{
		action: action,
		wait:   wait,
		mode:   o.mode,
		clock:  o.clock,
	}
}

// Trigger replaces any pending invocation with one for arg. In Leading mode
// the action runs on the calling goroutine before Trigger returns when no
// invocation was pending; in Trailing mode it runs on the timer goroutine.
func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	callNow := d.mode == Leading && d.pending == nil

	d.stopLocked()
	d.gen++
	gen := d.gen

	inv := &invocation[T]{gen: gen}
	if d.mode == Trailing {
		inv.arg = arg
	}
	d.pending = inv
	inv.timer = d.clock.AfterFunc(d.wait, func() {
		d.elapse(gen)
	})
	d.mu.Unlock()

	if callNow {
		d.action(arg)
	}
}

// Cancel drops the pending invocation without running the action. After it
// returns no fire happens for that invocation, even if its timer already
// expired and is waiting on the lock.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
}

func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending != nil
}

func (d *Debouncer[T]) Mode() Mode {
	return d.mode
}

func (d *Debouncer[T]) Wait() time.Duration {
	return d.wait
}

func (d *Debouncer[T]) elapse(gen uint64) {
	d.mu.Lock()
	inv := d.pending
	if inv == nil || inv.gen != gen {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.mu.Unlock()

	if d.mode == Trailing {
		d.action(inv.arg)
	}
}

func (d *Debouncer[T]) stopLocked() {
	if d.pending == nil {
		return
	}
	d.pending.timer.Stop()
	d.pending = nil
}

// Wrap debounces a function that takes no arguments.
func Wrap(action func(), wait time.Duration, opts ...Option) (call func(), cancel func()) {
	d := New(func(struct{}) {
		action()
	}, wait, opts...)

	return func() { d.Trigger(struct{}{}) }, d.Cancel
}
