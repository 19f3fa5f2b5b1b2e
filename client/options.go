package client

import (
	"time"

	"github.com/rise-and-shine/pulseq/observability/logger"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultDialAttempts = 5
	defaultDialDelay    = 100 * time.Millisecond
	defaultDialMaxDelay = 2 * time.Second
)

// Option is a function that configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	dialTimeout  time.Duration
	dialAttempts uint
	dialDelay    time.Duration
	dialMaxDelay time.Duration
	maxFrameSize int
	logger       logger.Logger
}

// WithDialTimeout bounds a single connection attempt.
// Default: 5 seconds.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.dialTimeout = timeout
	}
}

// WithDialAttempts sets how many times Dial tries to connect.
// Default: 5.
func WithDialAttempts(attempts uint) Option {
	return func(o *clientOptions) {
		o.dialAttempts = attempts
	}
}

// WithDialBackoff sets the first and the largest delay between attempts.
// Delays double after each failure.
// Default: 100ms up to 2s.
func WithDialBackoff(delay, maxDelay time.Duration) Option {
	return func(o *clientOptions) {
		o.dialDelay = delay
		o.dialMaxDelay = maxDelay
	}
}

// WithMaxFrameSize sets the largest response frame the client accepts.
// Default: protocol.DefaultMaxFrameSize.
func WithMaxFrameSize(size int) Option {
	return func(o *clientOptions) {
		o.maxFrameSize = size
	}
}

// WithLogger sets the logger used for dial retries.
// Default: the global logger named "client".
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		dialTimeout:  defaultDialTimeout,
		dialAttempts: defaultDialAttempts,
		dialDelay:    defaultDialDelay,
		dialMaxDelay: defaultDialMaxDelay,
	}
}

// EnqueueOption customises a single Enqueue.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	visibilityTimeout *int64
}

// WithVisibilityTimeout sets the lease length for the enqueued message. The
// broker accepts whole seconds only; timeout is truncated to seconds.
func WithVisibilityTimeout(timeout time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		secs := int64(timeout / time.Second)
		o.visibilityTimeout = &secs
	}
}
