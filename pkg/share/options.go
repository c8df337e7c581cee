package share

import (
	"github.com/fluxorio/threadshare/pkg/failfast"
	"github.com/fluxorio/threadshare/pkg/logging"
)

// Observer receives cell events. Implementations must be safe for
// concurrent use and must not call back into the cell.
type Observer interface {
	// CellMutated is called once per successful mutation
	CellMutated(cell, op string)

	// CASRetried is called each time an AtomicCell loses a compare-and-swap
	CASRetried(cell string)

	// UpdateDropped is called when an AtomicCell gives up on a mutation
	UpdateDropped(cell string)
}

type nopObserver struct{}

func (nopObserver) CellMutated(string, string) {}
func (nopObserver) CASRetried(string)          {}
func (nopObserver) UpdateDropped(string)       {}

// RetryPolicy bounds the compare-and-swap attempts of AtomicCell.Update and
// AtomicCell.Write. MaxAttempts <= 0 retries until the swap succeeds, which
// can livelock under extreme contention.
type RetryPolicy struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// UnboundedRetry never gives up
func UnboundedRetry() RetryPolicy {
	return RetryPolicy{}
}

func (p RetryPolicy) exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}

// Option configures a cell
type Option func(*options)

type options struct {
	name     string
	observer Observer
	logger   logging.Logger
	retry    RetryPolicy
	cloner   interface{}
}

func defaultOptions() options {
	return options{
		name:     "cell",
		observer: nopObserver{},
		logger:   logging.NewNopLogger(),
		retry:    UnboundedRetry(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName labels the cell in logs and metrics
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithObserver reports cell events to obs
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the logger used for diagnostics such as dropped updates
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryPolicy sets the AtomicCell update retry policy.
// Lock-based cells ignore it.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithCloner sets the function used to copy the payload out of a cell (Get,
// Read on AtomicCell) and into the private copy an AtomicCell update
// mutates. Maps, slices and pointers inside T are otherwise shared between
// the copy and the cell. The type parameter must match the cell's.
func WithCloner[T any](clone func(T) T) Option {
	return func(o *options) {
		if clone != nil {
			o.cloner = clone
		}
	}
}

func clonerFor[T any](o options) func(T) T {
	if o.cloner == nil {
		return func(v T) T { return v }
	}
	clone, ok := o.cloner.(func(T) T)
	failfast.If(ok, "cloner type %T does not match cell payload", o.cloner)
	return clone
}
