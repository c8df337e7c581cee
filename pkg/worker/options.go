package worker

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/threadshare/pkg/logging"
)

const tracerName = "github.com/fluxorio/threadshare/pkg/worker"

// Observer receives worker lifecycle events. Each tracked worker ends with
// exactly one WorkerRemoved or WorkerJoined call.
type Observer interface {
	WorkerAdded(name string)
	WorkerPaused(name string, paused bool)
	WorkerRemoved(name string, err error)
	WorkerJoined(name string, err error)
}

type nopObserver struct{}

func (nopObserver) WorkerAdded(string)          {}
func (nopObserver) WorkerPaused(string, bool)   {}
func (nopObserver) WorkerRemoved(string, error) {}
func (nopObserver) WorkerJoined(string, error)  {}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager's logger. Lifecycle events are logged at debug
// level, join failures at error level.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver reports lifecycle events to obs
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		if obs != nil {
			m.observer = obs
		}
	}
}

// WithTracer sets the tracer used for worker run, join and remove spans.
// Defaults to the global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
