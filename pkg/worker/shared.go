package worker

import (
	"errors"

	"github.com/fluxorio/threadshare/pkg/share"
)

// Job is a named worker body for Shared.SpawnAll
type Job[T any] struct {
	Name string
	Run  func(cell *share.LockedCell[T], ctl *Control)
}

// Shared bundles a LockedCell with a Manager whose workers all operate on it.
type Shared[T any] struct {
	cell    *share.LockedCell[T]
	manager *Manager
}

// NewShared wraps value in a new LockedCell with its own manager
func NewShared[T any](value T, opts ...Option) *Shared[T] {
	return NewSharedCell(share.NewLocked(value), opts...)
}

// NewSharedCell attaches a new manager to an existing cell
func NewSharedCell[T any](cell *share.LockedCell[T], opts ...Option) *Shared[T] {
	return &Shared[T]{cell: cell, manager: NewManager(opts...)}
}

// Cell returns the shared cell
func (s *Shared[T]) Cell() *share.LockedCell[T] {
	return s.cell
}

// Manager returns the manager tracking the workers
func (s *Shared[T]) Manager() *Manager {
	return s.manager
}

// Spawn starts fn on its own goroutine with a clone of the cell
func (s *Shared[T]) Spawn(name string, fn func(cell *share.LockedCell[T], ctl *Control)) error {
	return Go(s.manager, name, s.cell.Clone(), fn)
}

// SpawnAll starts every job. Jobs whose name is already taken are skipped
// and reported in the returned error; the rest are still started.
func (s *Shared[T]) SpawnAll(jobs ...Job[T]) error {
	var errs []error
	for _, job := range jobs {
		if err := s.Spawn(job.Name, job.Run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JoinAll waits for every tracked worker, see Manager.JoinAll
func (s *Shared[T]) JoinAll() error {
	return s.manager.JoinAll()
}

// ActiveWorkers returns the number of tracked workers
func (s *Shared[T]) ActiveWorkers() int {
	return s.manager.ActiveWorkers()
}

// IsComplete reports whether every tracked worker has returned
func (s *Shared[T]) IsComplete() bool {
	return s.manager.IsComplete()
}
