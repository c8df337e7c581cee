package share

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fluxorio/threadshare/pkg/failfast"
)

// guarded is the state behind a LockedCell and every LockedZeroCopyCell
// derived from it: one lock, one value, one signal.
type guarded[T any] struct {
	mu     sync.RWMutex
	value  T
	signal *ChangeSignal
	opts   options
	clone  func(T) T
}

func newGuarded[T any](value T, o options) *guarded[T] {
	return &guarded[T]{
		value:  value,
		signal: NewChangeSignal(),
		opts:   o,
		clone:  clonerFor[T](o),
	}
}

func (g *guarded[T]) get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clone(g.value)
}

func (g *guarded[T]) read(fn func(v *T)) {
	failfast.NotNil(fn, "read func")
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(&g.value)
}

func (g *guarded[T]) tryRead(fn func(v *T)) bool {
	failfast.NotNil(fn, "read func")
	if !g.mu.TryRLock() {
		return false
	}
	defer g.mu.RUnlock()
	fn(&g.value)
	return true
}

func (g *guarded[T]) mutate(op string, fn func(v *T)) {
	failfast.NotNil(fn, op+" func")
	g.mu.Lock()
	defer g.release(op)
	fn(&g.value)
}

func (g *guarded[T]) tryMutate(op string, fn func(v *T)) bool {
	failfast.NotNil(fn, op+" func")
	if !g.mu.TryLock() {
		return false
	}
	defer g.release(op)
	fn(&g.value)
	return true
}

// release signals and then unlocks, also on the panic path. A reader holding
// the lock therefore sees a version that matches the value.
func (g *guarded[T]) release(op string) {
	g.signal.Notify()
	g.mu.Unlock()
	g.opts.observer.CellMutated(g.opts.name, op)
}

// LockedCell is the default cell: a sync.RWMutex around the value plus a
// ChangeSignal that lets goroutines wait for the next mutation.
type LockedCell[T any] struct {
	g *guarded[T]
}

// NewLocked wraps value in a LockedCell at version 0
func NewLocked[T any](value T, opts ...Option) *LockedCell[T] {
	return &LockedCell[T]{g: newGuarded(value, buildOptions(opts))}
}

// Get returns a copy of the value taken under the read lock
func (c *LockedCell[T]) Get() T {
	return c.g.get()
}

// Snapshot returns a copy of the value together with the version it was
// published at.
func (c *LockedCell[T]) Snapshot() (T, uint64) {
	c.g.mu.RLock()
	defer c.g.mu.RUnlock()
	return c.g.clone(c.g.value), c.g.signal.Version()
}

// Set replaces the value and signals the change
func (c *LockedCell[T]) Set(value T) {
	c.g.mutate("set", func(v *T) {
		*v = value
	})
}

// Update mutates the value in place under the write lock and signals the change
func (c *LockedCell[T]) Update(fn func(v *T)) {
	c.g.mutate("update", fn)
}

// Read runs fn with the read lock held. fn must not modify *v.
func (c *LockedCell[T]) Read(fn func(v *T)) {
	c.g.read(fn)
}

// Write runs fn with the write lock held and signals the change
func (c *LockedCell[T]) Write(fn func(v *T)) {
	c.g.mutate("write", fn)
}

// Version returns the number of mutations observed so far
func (c *LockedCell[T]) Version() uint64 {
	return c.g.signal.Version()
}

// WaitForChange blocks until the cell is mutated or timeout elapses.
// Returns true iff it timed out.
func (c *LockedCell[T]) WaitForChange(timeout time.Duration) bool {
	if timeout < 0 {
		timeout = 0
	}
	return c.g.signal.Wait(timeout)
}

// WaitForChangeForever blocks until the cell is mutated
func (c *LockedCell[T]) WaitForChangeForever() {
	c.g.signal.Wait(-1)
}

// WaitForChangeContext blocks until the cell is mutated or ctx is done
func (c *LockedCell[T]) WaitForChangeContext(ctx context.Context) error {
	return c.g.signal.WaitContext(ctx)
}

// Signal exposes the cell's change signal, for waiting on a version
// captured earlier with Version.
func (c *LockedCell[T]) Signal() *ChangeSignal {
	return c.g.signal
}

// Clone returns another handle to the same value, lock and signal
func (c *LockedCell[T]) Clone() *LockedCell[T] {
	return &LockedCell[T]{g: c.g}
}

// ShareLock returns a zero-copy view serialized on this cell's own lock.
// Mutations through either side are visible to the other and advance this
// cell's version.
func (c *LockedCell[T]) ShareLock() *LockedZeroCopyCell[T] {
	return &LockedZeroCopyCell[T]{g: c.g}
}

// AsAtomic returns a new atomic pointer holding a snapshot of the current
// value. The pointer is independent: writes through it are never seen by
// this cell and writes to this cell are never seen through it.
func (c *LockedCell[T]) AsAtomic() *atomic.Pointer[T] {
	snapshot := c.g.get()
	p := &atomic.Pointer[T]{}
	p.Store(&snapshot)
	return p
}
