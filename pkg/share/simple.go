package share

import (
	"sync"

	"github.com/fluxorio/threadshare/pkg/failfast"
)

type simpleState[T any] struct {
	mu    sync.Mutex
	value T
	opts  options
	clone func(T) T
}

// SimpleCell guards the value with a plain sync.Mutex. It has no change
// signal; use it when get/set/update is all that is needed.
type SimpleCell[T any] struct {
	s *simpleState[T]
}

// NewSimple wraps value in a SimpleCell
func NewSimple[T any](value T, opts ...Option) *SimpleCell[T] {
	o := buildOptions(opts)
	return &SimpleCell[T]{s: &simpleState[T]{value: value, opts: o, clone: clonerFor[T](o)}}
}

// Get returns a copy of the value
func (c *SimpleCell[T]) Get() T {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.clone(c.s.value)
}

// Set replaces the value
func (c *SimpleCell[T]) Set(value T) {
	c.s.mu.Lock()
	c.s.value = value
	c.s.mu.Unlock()
	c.s.opts.observer.CellMutated(c.s.opts.name, "set")
}

// Update mutates the value in place while holding the lock
func (c *SimpleCell[T]) Update(fn func(v *T)) {
	c.mutate("update", fn)
}

// Read runs fn while holding the lock
func (c *SimpleCell[T]) Read(fn func(v *T)) {
	failfast.NotNil(fn, "read func")
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	fn(&c.s.value)
}

// Write runs fn while holding the lock
func (c *SimpleCell[T]) Write(fn func(v *T)) {
	c.mutate("write", fn)
}

func (c *SimpleCell[T]) mutate(op string, fn func(v *T)) {
	failfast.NotNil(fn, op+" func")
	c.s.mu.Lock()
	defer func() {
		c.s.mu.Unlock()
		c.s.opts.observer.CellMutated(c.s.opts.name, op)
	}()
	fn(&c.s.value)
}

// Clone returns another handle to the same value and lock
func (c *SimpleCell[T]) Clone() *SimpleCell[T] {
	return &SimpleCell[T]{s: c.s}
}
