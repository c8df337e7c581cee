package config

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fluxorio/threadshare/pkg/logging"
	"github.com/fluxorio/threadshare/pkg/share"
	"github.com/fluxorio/threadshare/pkg/worker"
)

// EnvPrefix is the default prefix for environment overrides
const EnvPrefix = "THREADSHARE"

// Config is the runtime configuration shared by the cells, the worker
// manager and the demo server.
type Config struct {
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Atomic  AtomicConfig  `yaml:"atomic" json:"atomic"`
	Worker  WorkerConfig  `yaml:"worker" json:"worker"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// LoggingConfig selects the minimum log level (debug, info, warn, error, off)
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// AtomicConfig controls AtomicCell retries. MaxAttempts 0 retries without bound.
type AtomicConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// WorkerConfig controls the worker manager
type WorkerConfig struct {
	// Count is the number of background workers the demo starts
	Count   int  `yaml:"count" json:"count"`
	Tracing bool `yaml:"tracing" json:"tracing"`
}

// MetricsConfig controls the Prometheus collectors
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// ServerConfig controls the demo HTTP server. An empty StreamAddr disables
// the websocket board stream.
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	StreamAddr      string        `yaml:"stream_addr" json:"stream_addr"`
	StreamRate      float64       `yaml:"stream_rate" json:"stream_rate"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Atomic:  AtomicConfig{MaxAttempts: 0},
		Worker:  WorkerConfig{Count: 4, Tracing: true},
		Metrics: MetricsConfig{Enabled: true, Namespace: "threadshare"},
		Server: ServerConfig{
			Addr:            ":8080",
			StreamAddr:      ":8081",
			StreamRate:      10,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// LoadFile reads path on top of Default, applies THREADSHARE_* overrides
// and validates the result. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadWithEnv(path, EnvPrefix, &cfg); err != nil {
			return Config{}, err
		}
	} else if err := ApplyEnvOverrides(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger builds a logger at the configured level writing to stdout/stderr
func (c *Config) Logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(os.Stderr, os.Stdout, level), nil
}

// RetryPolicy returns the AtomicCell retry policy
func (c *Config) RetryPolicy() share.RetryPolicy {
	return share.RetryPolicy{MaxAttempts: c.Atomic.MaxAttempts}
}

// ShareOptions converts the configuration into cell options. extra is
// appended last so callers can override.
func (c *Config) ShareOptions(logger logging.Logger, extra ...share.Option) []share.Option {
	opts := []share.Option{
		share.WithRetryPolicy(c.RetryPolicy()),
		share.WithLogger(logger),
	}
	return append(opts, extra...)
}

// WorkerOptions converts the configuration into manager options. With
// tracing disabled the manager gets a no-op tracer.
func (c *Config) WorkerOptions(logger logging.Logger, extra ...worker.Option) []worker.Option {
	opts := []worker.Option{worker.WithLogger(logger)}
	if !c.Worker.Tracing {
		opts = append(opts, worker.WithTracer(noop.NewTracerProvider().Tracer("")))
	}
	return append(opts, extra...)
}
