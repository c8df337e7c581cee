package share

import (
	"sync/atomic"

	"github.com/fluxorio/threadshare/pkg/failfast"
)

// AtomicCell publishes immutable snapshots of the value through an atomic
// pointer. Readers never block.
//
// Each mutation builds a new snapshot and installs it with compare-and-swap.
// A published snapshot is never written again, and the previous one is
// reclaimed by the garbage collector only once no reader still references
// it, so a Get racing with a Set always copies a complete value.
//
// Update and Write are load, copy, mutate, swap. They retry on a lost swap
// according to the cell's RetryPolicy; when a bounded policy is exhausted
// the mutation is dropped. Use Increment and Add for counters: they retry
// until they win and never lose an update.
type AtomicCell[T any] struct {
	ptr   *atomic.Pointer[T]
	opts  options
	clone func(T) T
}

// NewAtomic stores value in a fresh atomic pointer
func NewAtomic[T any](value T, opts ...Option) *AtomicCell[T] {
	ptr := &atomic.Pointer[T]{}
	ptr.Store(&value)
	return newAtomicCell(ptr, buildOptions(opts))
}

// FromExisting adopts ptr, which must already hold a snapshot.
//
// The resulting cell shares ptr with every other holder of it, and with
// nothing else. In particular a pointer obtained from LockedCell.AsAtomic
// yields a cell that is independent of that LockedCell.
func FromExisting[T any](ptr *atomic.Pointer[T], opts ...Option) *AtomicCell[T] {
	failfast.NotNil(ptr, "atomic pointer")
	failfast.If(ptr.Load() != nil, "atomic pointer holds no value")
	return newAtomicCell(ptr, buildOptions(opts))
}

func newAtomicCell[T any](ptr *atomic.Pointer[T], o options) *AtomicCell[T] {
	return &AtomicCell[T]{ptr: ptr, opts: o, clone: clonerFor[T](o)}
}

// Get returns a copy of the current snapshot
func (c *AtomicCell[T]) Get() T {
	return c.clone(*c.ptr.Load())
}

// Set publishes value as the new snapshot
func (c *AtomicCell[T]) Set(value T) {
	c.ptr.Store(&value)
	c.opts.observer.CellMutated(c.opts.name, "set")
}

// TryUpdate applies fn to a private copy of the current snapshot and tries
// to publish it, retrying per the RetryPolicy. fn may run several times.
// Reports whether the mutation was published.
func (c *AtomicCell[T]) TryUpdate(fn func(v *T)) bool {
	return c.swapLoop("update", fn)
}

// Update is TryUpdate that reports a dropped mutation to the observer and
// logger instead of the caller.
func (c *AtomicCell[T]) Update(fn func(v *T)) {
	if !c.swapLoop("update", fn) {
		c.dropped("update")
	}
}

// Read runs fn on a private copy of the current snapshot
func (c *AtomicCell[T]) Read(fn func(v *T)) {
	failfast.NotNil(fn, "read func")
	v := c.Get()
	fn(&v)
}

// Write has the same semantics and caveats as Update
func (c *AtomicCell[T]) Write(fn func(v *T)) {
	if !c.swapLoop("write", fn) {
		c.dropped("write")
	}
}

func (c *AtomicCell[T]) swapLoop(op string, fn func(v *T)) bool {
	failfast.NotNil(fn, op+" func")
	for attempts := 1; ; attempts++ {
		cur := c.ptr.Load()
		next := c.clone(*cur)
		fn(&next)
		if c.ptr.CompareAndSwap(cur, &next) {
			c.opts.observer.CellMutated(c.opts.name, op)
			return true
		}
		c.opts.observer.CASRetried(c.opts.name)
		if c.opts.retry.exhausted(attempts) {
			return false
		}
	}
}

func (c *AtomicCell[T]) dropped(op string) {
	c.opts.observer.UpdateDropped(c.opts.name)
	c.opts.logger.Warnf("cell %s: %s dropped after %d attempts", c.opts.name, op, c.opts.retry.MaxAttempts)
}

// Pointer returns the underlying atomic pointer. Cells adopting it with
// FromExisting share state with this one.
func (c *AtomicCell[T]) Pointer() *atomic.Pointer[T] {
	return c.ptr
}

// Clone returns another handle to the same pointer
func (c *AtomicCell[T]) Clone() *AtomicCell[T] {
	return &AtomicCell[T]{ptr: c.ptr, opts: c.opts, clone: c.clone}
}
