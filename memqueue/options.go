package memqueue

import (
	"time"

	"github.com/code19m/errx"
	"github.com/rcrowley/go-metrics"

	"github.com/rise-and-shine/pulseq/clock"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/val"
)

const (
	// DefaultVisibilityTimeout is used when a message does not carry its own.
	DefaultVisibilityTimeout = 30 * time.Second

	// DefaultMaxVisibilityTimeout is the largest timeout Enqueue accepts.
	DefaultMaxVisibilityTimeout = 12 * time.Hour

	// DefaultMaxWait caps how long a single Dequeue may long-poll.
	DefaultMaxWait = 20 * time.Second
)

// Option is a function that configures a Queue.
type Option func(*queueOptions)

// queueOptions holds internal configuration for the queue.
type queueOptions struct {
	clock                    clock.Clock
	defaultVisibilityTimeout time.Duration
	maxVisibilityTimeout     time.Duration
	maxWait                  time.Duration
	registry                 metrics.Registry
	logger                   logger.Logger
}

// WithClock sets the time source used for enqueue times and lease expiry.
// Default: clock.System.
func WithClock(c clock.Clock) Option {
	return func(o *queueOptions) {
		o.clock = c
	}
}

// WithDefaultVisibilityTimeout sets the lease length for messages enqueued
// without one.
// Default: 30 seconds.
func WithDefaultVisibilityTimeout(timeout time.Duration) Option {
	return func(o *queueOptions) {
		o.defaultVisibilityTimeout = timeout
	}
}

// WithMaxVisibilityTimeout sets the largest visibility timeout Enqueue accepts.
// Default: 12 hours.
func WithMaxVisibilityTimeout(timeout time.Duration) Option {
	return func(o *queueOptions) {
		o.maxVisibilityTimeout = timeout
	}
}

// WithMaxWait caps the long-poll wait of a single Dequeue.
// Default: 20 seconds.
func WithMaxWait(wait time.Duration) Option {
	return func(o *queueOptions) {
		o.maxWait = wait
	}
}

// WithMetricsRegistry sets the registry the queue reports its metrics to.
// Default: a fresh private registry.
func WithMetricsRegistry(r metrics.Registry) Option {
	return func(o *queueOptions) {
		o.registry = r
	}
}

// WithLogger sets the logger used by the queue.
// Default: the global logger named "memqueue".
func WithLogger(l logger.Logger) Option {
	return func(o *queueOptions) {
		o.logger = l
	}
}

// defaultOptions returns the default queue options.
func defaultOptions() queueOptions {
	return queueOptions{
		clock:                    clock.System{},
		defaultVisibilityTimeout: DefaultVisibilityTimeout,
		maxVisibilityTimeout:     DefaultMaxVisibilityTimeout,
		maxWait:                  DefaultMaxWait,
		registry:                 metrics.NewRegistry(),
		logger:                   logger.Named("memqueue"),
	}
}

func validateOptions(o queueOptions) error {
	if o.clock == nil {
		return errx.New("[memqueue]: clock is required")
	}
	if o.registry == nil {
		return errx.New("[memqueue]: metrics registry is required")
	}
	if o.logger == nil {
		return errx.New("[memqueue]: logger is required")
	}
	if o.maxVisibilityTimeout <= 0 {
		return errx.New("[memqueue]: max visibility timeout must be positive")
	}
	if o.defaultVisibilityTimeout <= 0 || o.defaultVisibilityTimeout > o.maxVisibilityTimeout {
		return errx.New("[memqueue]: default visibility timeout must be positive and not above the maximum")
	}
	if !val.IsWholeSeconds(o.defaultVisibilityTimeout) {
		return errx.New("[memqueue]: default visibility timeout must be a whole number of seconds")
	}
	if o.maxWait < 0 {
		return errx.New("[memqueue]: max wait must not be negative")
	}
	return nil
}
