package share

import (
	"context"
	"sync"
	"time"
)

// ChangeSignal is a version counter paired with a broadcast.
// Every Notify increments the version once and wakes all current waiters.
type ChangeSignal struct {
	mu      sync.Mutex
	version uint64
	changed chan struct{}
}

// NewChangeSignal creates a signal at version 0
func NewChangeSignal() *ChangeSignal {
	return &ChangeSignal{changed: make(chan struct{})}
}

// Notify bumps the version and wakes every waiter. Returns the new version.
func (s *ChangeSignal) Notify() uint64 {
	s.mu.Lock()
	s.version++
	v := s.version
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
	return v
}

// Version returns the current version
func (s *ChangeSignal) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *ChangeSignal) current() (uint64, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.changed
}

// Wait blocks until the version moves past the one observed on entry or
// timeout elapses. A negative timeout waits forever.
// Returns true iff it returned because of the timeout.
func (s *ChangeSignal) Wait(timeout time.Duration) bool {
	return s.WaitAfter(s.Version(), timeout)
}

// WaitAfter blocks until the version differs from since or timeout elapses.
// Returns true iff it returned because of the timeout.
func (s *ChangeSignal) WaitAfter(since uint64, timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		v, changed := s.current()
		if v != since {
			return false
		}
		select {
		case <-changed:
			// recheck: a wakeup is only a hint
		case <-expired:
			return s.Version() == since
		}
	}
}

// WaitContext blocks until the version moves past the one observed on entry
// or ctx is done, in which case ctx.Err() is returned.
func (s *ChangeSignal) WaitContext(ctx context.Context) error {
	return s.WaitAfterContext(ctx, s.Version())
}

// WaitAfterContext is WaitAfter bounded by ctx instead of a timeout
func (s *ChangeSignal) WaitAfterContext(ctx context.Context, since uint64) error {
	for {
		v, changed := s.current()
		if v != since {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			if s.Version() != since {
				return nil
			}
			return ctx.Err()
		}
	}
}
