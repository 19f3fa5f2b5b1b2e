package wrgrpc

import (
	"net"
	"time"

	"github.com/spf13/cast"
)

// Default message size limits for gRPC.
const (
	MaxSendMessageLength    = 8 << 20 // 8MB
	MaxReceiveMessageLength = 8 << 20 // 8MB
)

// Config is the configuration for the gRPC server.
type Config struct {
	// Disable turns the gRPC API off.
	Disable bool `yaml:"disable"`

	// Host is the server's bind address. Default is all interfaces.
	Host string `yaml:"host" default:"0.0.0.0"`

	// Port is the server's bind port. Default is 9090.
	Port int `yaml:"port" validate:"gte=0,lte=65535" default:"9090"`

	// Reflection enables gRPC reflection, which provides information about the gRPC server.
	Reflection bool `yaml:"reflection"`

	// UnaryTimeout is the timeout for unary RPCs. It must outlast the longest
	// dequeue long poll. Default is 25 seconds.
	UnaryTimeout time.Duration `yaml:"unary_timeout" validate:"required" default:"25s"`

	// ShutdownTimeout bounds how long Stop waits for in-flight RPCs before
	// closing them. Default is 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"required" default:"10s"`
}

// Address returns the server's address in the format "host:port".
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, cast.ToString(c.Port))
}
