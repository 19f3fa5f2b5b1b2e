package memqueue

import "time"

// Config holds the queue settings loaded from the service configuration.
type Config struct {
	// DefaultVisibilityTimeout is the lease length for messages enqueued without one.
	DefaultVisibilityTimeout time.Duration `yaml:"default_visibility_timeout" validate:"gt=0" default:"30s"`

	// MaxVisibilityTimeout is the largest visibility timeout a producer may request.
	MaxVisibilityTimeout time.Duration `yaml:"max_visibility_timeout" validate:"gt=0" default:"12h"`

	// MaxWait caps how long a single long-poll dequeue may wait.
	MaxWait time.Duration `yaml:"max_wait" validate:"gte=0" default:"20s"`

	// ReapInterval is the period of the background expiry reconciler.
	ReapInterval time.Duration `yaml:"reap_interval" validate:"gt=0" default:"1s"`
}

// Options converts the config into queue options.
func (c Config) Options() []Option {
	return []Option{
		WithDefaultVisibilityTimeout(c.DefaultVisibilityTimeout),
		WithMaxVisibilityTimeout(c.MaxVisibilityTimeout),
		WithMaxWait(c.MaxWait),
	}
}
