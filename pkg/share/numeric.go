package share

// Number is the set of payload types Increment and Add accept
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Increment atomically adds one to the cell and returns the new value
func Increment[T Number](c *AtomicCell[T]) T {
	return addLoop(c, 1, "increment")
}

// Add atomically adds delta to the cell and returns the new value.
// Concurrent calls are each reflected exactly once.
func Add[T Number](c *AtomicCell[T], delta T) T {
	return addLoop(c, delta, "add")
}

// addLoop retries without bound. The candidate snapshot is allocated once and
// rewritten on every lost swap; it is not visible to anyone until the swap wins.
// Snapshots are never reused while referenced, so the swap cannot suffer ABA.
func addLoop[T Number](c *AtomicCell[T], delta T, op string) T {
	next := new(T)
	for {
		cur := c.ptr.Load()
		*next = *cur + delta
		if c.ptr.CompareAndSwap(cur, next) {
			c.opts.observer.CellMutated(c.opts.name, op)
			return *next
		}
		c.opts.observer.CASRetried(c.opts.name)
	}
}
