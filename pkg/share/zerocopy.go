package share

// LockedZeroCopyCell is a view onto the lock and value owned by a LockedCell.
// It is obtained only through LockedCell.ShareLock and is fully synchronized
// with its origin and with every sibling view.
type LockedZeroCopyCell[T any] struct {
	g *guarded[T]
}

// Get returns a copy of the shared value
func (c *LockedZeroCopyCell[T]) Get() T {
	return c.g.get()
}

// Set replaces the shared value
func (c *LockedZeroCopyCell[T]) Set(value T) {
	c.g.mutate("set", func(v *T) {
		*v = value
	})
}

// Update mutates the shared value in place
func (c *LockedZeroCopyCell[T]) Update(fn func(v *T)) {
	c.g.mutate("update", fn)
}

// Read runs fn under the shared read lock
func (c *LockedZeroCopyCell[T]) Read(fn func(v *T)) {
	c.g.read(fn)
}

// Write runs fn under the shared write lock
func (c *LockedZeroCopyCell[T]) Write(fn func(v *T)) {
	c.g.mutate("write", fn)
}

// TryRead runs fn only if the read lock is immediately available.
// Reports whether fn ran.
func (c *LockedZeroCopyCell[T]) TryRead(fn func(v *T)) bool {
	return c.g.tryRead(fn)
}

// TryWrite runs fn only if the write lock is immediately available.
// Reports whether fn ran.
func (c *LockedZeroCopyCell[T]) TryWrite(fn func(v *T)) bool {
	return c.g.tryMutate("write", fn)
}

// Clone returns another view onto the same lock
func (c *LockedZeroCopyCell[T]) Clone() *LockedZeroCopyCell[T] {
	return &LockedZeroCopyCell[T]{g: c.g}
}
