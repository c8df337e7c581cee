package share

// Cell is the operation set shared by every cell variant.
type Cell[T any] interface {
	Get() T
	Set(value T)
	Update(fn func(v *T))
	Read(fn func(v *T))
	Write(fn func(v *T))
}

// Reader is a cell offering scoped read access
type Reader[T any] interface {
	Read(fn func(v *T))
}

// Writer is a cell offering scoped write access
type Writer[T any] interface {
	Write(fn func(v *T))
}

var (
	_ Cell[int] = (*LockedCell[int])(nil)
	_ Cell[int] = (*SimpleCell[int])(nil)
	_ Cell[int] = (*AtomicCell[int])(nil)
	_ Cell[int] = (*LockedZeroCopyCell[int])(nil)
)

// View runs fn under the cell's read access and returns its result.
func View[T, R any](c Reader[T], fn func(v *T) R) R {
	var r R
	c.Read(func(v *T) {
		r = fn(v)
	})
	return r
}

// Modify runs fn under the cell's write access and returns its result.
// On an AtomicCell fn may run more than once and the mutation may be dropped;
// the returned value is the one from the last run.
func Modify[T, R any](c Writer[T], fn func(v *T) R) R {
	var r R
	c.Write(func(v *T) {
		r = fn(v)
	})
	return r
}
