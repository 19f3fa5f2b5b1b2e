package server

import (
	"net"
	"time"

	"github.com/spf13/cast"
)

// Config defines configuration options for the HTTP server.
type Config struct {
	// Disable turns the HTTP API off.
	Disable bool `yaml:"disable"`

	// HideErrorDetails is a flag to hide error details in the response.
	HideErrorDetails bool `yaml:"hide_error_details"`

	// Host address to bind the server to. Default is all interfaces.
	Host string `yaml:"host" default:"0.0.0.0"`

	// Port number to listen on. Default is 8081.
	Port int `yaml:"port" validate:"gte=0,lte=65535" default:"8081"`

	// ReadTimeout is a maximum duration for reading the entire request. Default is 5 seconds.
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"required" default:"5s"`

	// WriteTimeout is a maximum duration before timing out writes of the response.
	// It must outlast the longest dequeue long poll. Default is 30 seconds.
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required" default:"30s"`

	// IdleTimeout is a maximum amount of time to wait for the next request. Default is 120 seconds.
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"required" default:"120s"`

	// HandleTimeout is a maximum duration for handling a single request. Default is 25 seconds.
	HandleTimeout time.Duration `yaml:"handle_timeout" validate:"required" default:"25s"`

	// ShutdownTimeout bounds how long Stop waits for in-flight requests. Default is 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"required" default:"10s"`

	// BodyLimit is the maximum request body size in bytes. Default is 4MB.
	BodyLimit int `yaml:"body_limit" validate:"required" default:"4194304"`
}

// Address returns the server's listen address in the form "host:port".
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, cast.ToString(c.Port))
}
