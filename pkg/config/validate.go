package config

import (
	"errors"
	"fmt"

	"github.com/fluxorio/threadshare/pkg/logging"
)

// ErrInvalidConfig wraps every error returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid config")

const (
	maxRetryAttempts = 1 << 20
	maxWorkers       = 1024
	minStreamRate    = 0.1
	maxStreamRate    = 1000
)

// Validate checks every section and stops at the first failure
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.Logging.validate,
		c.Atomic.validate,
		c.Worker.validate,
		c.Metrics.validate,
		c.Server.validate,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (l LoggingConfig) validate() error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (a AtomicConfig) validate() error {
	if a.MaxAttempts < 0 || a.MaxAttempts > maxRetryAttempts {
		return fmt.Errorf("atomic.max_attempts %d is out of range [0, %d]", a.MaxAttempts, maxRetryAttempts)
	}
	return nil
}

func (w WorkerConfig) validate() error {
	if w.Count < 0 || w.Count > maxWorkers {
		return fmt.Errorf("worker.count %d is out of range [0, %d]", w.Count, maxWorkers)
	}
	return nil
}

func (m MetricsConfig) validate() error {
	if m.Enabled && m.Namespace == "" {
		return errors.New("metrics.namespace is required when metrics are enabled")
	}
	return nil
}

func (s ServerConfig) validate() error {
	if s.Addr == "" {
		return errors.New("server.addr is required")
	}
	// NaN fails both comparisons
	if !(s.StreamRate >= minStreamRate && s.StreamRate <= maxStreamRate) {
		return fmt.Errorf("server.stream_rate %v is out of range [%v, %v]", s.StreamRate, minStreamRate, maxStreamRate)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout %v is negative", s.ShutdownTimeout)
	}
	return nil
}
