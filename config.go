package ioexec

import (
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/ioexec/metrics"
)

// config holds Executor configuration.
type config struct {
	// Capacity bounds the operation queue. Zero (default) means unbounded:
	// Submit never reports ErrOverloaded, at the cost of unbounded memory
	// growth under sustained overload. A positive value makes Submit reject
	// with ErrOverloaded when full and makes SubmitWait block for space.
	Capacity uint

	// Metrics receives executor measurements. Defaults to the no-op
	// provider.
	Metrics metrics.Provider

	// JoinTimeout bounds the wait for worker goroutines to terminate during
	// teardown. A worker still running past the bound is reported via
	// ErrWorkerStall from Close.
	// Default: 5s.
	JoinTimeout time.Duration
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Capacity:    0, // unbounded queue
		Metrics:     metrics.NewNoopProvider(),
		JoinTimeout: 5 * time.Second,
	}
}

// validateConfig performs lightweight invariants checks after options are
// applied.
func validateConfig(cfg *config) error {
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "metrics provider must not be nil"))
	}
	if cfg.JoinTimeout <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "join timeout must be > 0"))
	}
	return nil
}

// Option configures an Executor. Use New(resource, workers, opts...) to
// construct an Executor via options. Options return an error on invalid
// input instead of panicking.
type Option func(*config) error

// WithCapacity bounds the operation queue to n entries. With a bound in
// place, Submit rejects with ErrOverloaded while the queue is full and
// SubmitWait blocks until space frees up.
func WithCapacity(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithCapacity requires n > 0"))
		}
		cfg.Capacity = n
		return nil
	}
}

// WithMetrics sets the metrics provider receiving executor measurements.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithJoinTimeout sets the bound on worker termination during teardown
// (default 5s).
func WithJoinTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithJoinTimeout requires d > 0"))
		}
		cfg.JoinTimeout = d
		return nil
	}
}
