package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fluxorio/threadshare/pkg/failfast"
	"github.com/fluxorio/threadshare/pkg/logging"
)

// State is the lifecycle state of a tracked worker
type State int

const (
	StateActive State = iota
	StatePaused
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WorkerInfo is a point-in-time view of one tracked worker
type WorkerInfo struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	State    State  `json:"state"`
	Finished bool   `json:"finished"`
}

type record struct {
	name   string
	handle *Handle
}

func (r *record) info() WorkerInfo {
	state := StateActive
	switch {
	case r.handle.ctl.Removed():
		state = StateRemoved
	case r.handle.ctl.Paused():
		state = StatePaused
	}
	return WorkerInfo{
		Name:     r.name,
		ID:       r.handle.id.String(),
		State:    state,
		Finished: r.handle.Finished(),
	}
}

// Manager tracks named workers. It is safe for concurrent use, including
// from inside the workers it tracks; its table lock is never held while
// joining.
type Manager struct {
	mu      sync.Mutex
	records map[string]*record
	order   []string

	logger   logging.Logger
	observer Observer
	tracer   trace.Tracer
}

// NewManager creates an empty manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		records:  make(map[string]*record),
		logger:   logging.NewDefaultLogger(),
		observer: nopObserver{},
		tracer:   defaultTracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// NewManagerWith creates a manager tracking already running handles under
// the names worker-0, worker-1, ...
func NewManagerWith(handles []*Handle, opts ...Option) *Manager {
	m := NewManager(opts...)
	for i, h := range handles {
		failfast.Err(m.AddWorker(fmt.Sprintf("worker-%d", i), h))
	}
	return m
}

// AddWorker tracks an already running handle under name
func (m *Manager) AddWorker(name string, h *Handle) error {
	failfast.NotNil(h, "handle")
	if name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	if _, exists := m.records[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	m.track(name, h)
	m.mu.Unlock()

	m.added(name, h)
	return nil
}

// SpawnWorker starts fn on a new goroutine and tracks it under name.
// Nothing is started if name is already tracked.
func (m *Manager) SpawnWorker(name string, fn func(ctl *Control)) error {
	failfast.NotNil(fn, "worker func")
	if name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	if _, exists := m.records[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	h := Spawn(m.traced(name, fn))
	m.track(name, h)
	m.mu.Unlock()

	m.added(name, h)
	return nil
}

// Go starts fn with shared on a new goroutine tracked by m under name.
// shared is typically a cell handle from package share.
func Go[C any](m *Manager, name string, shared C, fn func(shared C, ctl *Control)) error {
	failfast.NotNil(fn, "worker func")
	return m.SpawnWorker(name, func(ctl *Control) {
		fn(shared, ctl)
	})
}

func (m *Manager) traced(name string, fn func(ctl *Control)) func(ctl *Control) {
	return func(ctl *Control) {
		_, span := m.tracer.Start(context.Background(), "worker.run",
			trace.WithAttributes(attribute.String("worker.name", name)))
		defer span.End()
		fn(ctl)
	}
}

// track must be called with m.mu held
func (m *Manager) track(name string, h *Handle) {
	m.records[name] = &record{name: name, handle: h}
	m.order = append(m.order, name)
}

// untrack must be called with m.mu held
func (m *Manager) untrack(name string) {
	delete(m.records, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) added(name string, h *Handle) {
	m.logger.Debugf("worker %q (%s) added to manager", name, h.id)
	m.observer.WorkerAdded(name)
}

func (m *Manager) lookup(name string) (*record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorker, name)
	}
	return r, nil
}

// RemoveWorker asks the worker to exit, stops tracking it and blocks until
// it returns. The worker only exits if its body observes Control.Removed or
// Control.Checkpoint.
func (m *Manager) RemoveWorker(name string) error {
	m.mu.Lock()
	r, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownWorker, name)
	}
	m.untrack(name)
	m.mu.Unlock()

	r.handle.ctl.remove()
	err := m.join(r, "worker.remove")
	m.observer.WorkerRemoved(name, err)
	m.logger.Debugf("worker %q removed", name)
	return err
}

// RemoveAllWorkers asks every tracked worker to exit, then joins them all.
// Every failure is collected into the returned error.
func (m *Manager) RemoveAllWorkers() error {
	m.mu.Lock()
	records := make([]*record, 0, len(m.order))
	for _, name := range m.order {
		records = append(records, m.records[name])
	}
	m.records = make(map[string]*record)
	m.order = nil
	m.mu.Unlock()

	for _, r := range records {
		r.handle.ctl.remove()
	}

	var errs []error
	for _, r := range records {
		err := m.join(r, "worker.remove")
		m.observer.WorkerRemoved(r.name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	m.logger.Debugf("removed %d workers", len(records))
	return errors.Join(errs...)
}

// PauseWorker sets the worker's pause flag. The worker pauses only when its
// body next calls Control.Checkpoint.
func (m *Manager) PauseWorker(name string) error {
	return m.setPaused(name, true)
}

// ResumeWorker clears the worker's pause flag and wakes it if it is blocked
// in Control.Checkpoint.
func (m *Manager) ResumeWorker(name string) error {
	return m.setPaused(name, false)
}

func (m *Manager) setPaused(name string, paused bool) error {
	r, err := m.lookup(name)
	if err != nil {
		return err
	}
	r.handle.ctl.setPaused(paused)
	m.observer.WorkerPaused(name, paused)
	m.logger.Debugf("worker %q paused=%v", name, paused)
	return nil
}

// IsWorkerPaused reports whether name is tracked and flagged as paused
func (m *Manager) IsWorkerPaused(name string) bool {
	r, err := m.lookup(name)
	if err != nil {
		return false
	}
	return r.handle.ctl.Paused()
}

// ActiveWorkers returns the number of tracked workers
func (m *Manager) ActiveWorkers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// WorkerNames returns the tracked names in insertion order
func (m *Manager) WorkerNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Status returns a snapshot of one worker
func (m *Manager) Status(name string) (WorkerInfo, error) {
	r, err := m.lookup(name)
	if err != nil {
		return WorkerInfo{}, err
	}
	return r.info(), nil
}

// Workers returns a snapshot of every tracked worker in insertion order
func (m *Manager) Workers() []WorkerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]WorkerInfo, 0, len(m.order))
	for _, name := range m.order {
		infos = append(infos, m.records[name].info())
	}
	return infos
}

// IsComplete reports whether every tracked worker has returned
func (m *Manager) IsComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if !r.handle.Finished() {
			return false
		}
	}
	return true
}

// JoinAll blocks until every worker tracked at the time of the call has
// returned, then stops tracking them. Workers stay tracked, and so can be
// paused, resumed or removed, until they have been joined. Returns the first
// failure observed; the remaining workers are still joined.
func (m *Manager) JoinAll() error {
	m.mu.Lock()
	records := make([]*record, 0, len(m.order))
	for _, name := range m.order {
		records = append(records, m.records[name])
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, r := range records {
		g.Go(func() error {
			err := m.join(r, "worker.join")

			m.mu.Lock()
			owned := m.records[r.name] == r
			if owned {
				m.untrack(r.name)
			}
			m.mu.Unlock()

			if owned {
				m.observer.WorkerJoined(r.name, err)
			}
			return err
		})
	}
	return g.Wait()
}

func (m *Manager) join(r *record, spanName string) error {
	_, span := m.tracer.Start(context.Background(), spanName,
		trace.WithAttributes(
			attribute.String("worker.name", r.name),
			attribute.String("worker.id", r.handle.id.String()),
		))
	defer span.End()

	<-r.handle.done
	err := r.handle.result(r.name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "worker terminated abnormally")
		m.logger.Errorf("worker %q failed: %v", r.name, err)
	}
	return err
}
