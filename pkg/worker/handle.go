package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/fluxorio/threadshare/pkg/failfast"
)

// Handle owns one running worker goroutine
type Handle struct {
	id   uuid.UUID
	ctl  *Control
	done chan struct{}
	err  error
}

// Spawn starts fn on a new goroutine and returns its handle.
// A panic in fn, or fn ending through runtime.Goexit, is reported by Join.
func Spawn(fn func(ctl *Control)) *Handle {
	failfast.NotNil(fn, "worker func")
	h := &Handle{
		id:   uuid.New(),
		ctl:  newControl(),
		done: make(chan struct{}),
	}
	go h.run(fn)
	return h
}

func (h *Handle) run(fn func(ctl *Control)) {
	returned := false
	defer func() {
		// Capture never returns when fn calls runtime.Goexit
		if !returned {
			h.err = ErrGoexit
		}
		close(h.done)
	}()
	h.err = failfast.Capture(func() {
		fn(h.ctl)
	})
	returned = true
}

// ID returns the handle's unique id
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Control returns the flags shared with the worker body
func (h *Handle) Control() *Control {
	return h.ctl
}

// Done is closed when the worker returns
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Finished reports whether the worker has returned
func (h *Handle) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Join blocks until the worker returns. It may be called any number of times
// from any goroutine.
func (h *Handle) Join() error {
	<-h.done
	return h.result("")
}

// JoinContext is Join bounded by ctx. The worker keeps running if ctx ends first.
func (h *Handle) JoinContext(ctx context.Context) error {
	select {
	case <-h.done:
		return h.result("")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) result(name string) error {
	if h.err == nil {
		return nil
	}
	return &JoinError{Worker: name, ID: h.id, Err: h.err}
}
