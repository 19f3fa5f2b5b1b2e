package broker

import (
	"net"
	"time"

	"github.com/spf13/cast"
)

// Config defines configuration options for the TCP broker.
type Config struct {
	// Host address to bind the broker to. Default is all interfaces.
	Host string `yaml:"host" default:"0.0.0.0"`

	// Port number to listen on. Default is 8080.
	Port int `yaml:"port" validate:"gte=0,lte=65535" default:"8080"`

	// MaxFrameSize is the largest request frame in bytes. Zero selects
	// protocol.DefaultMaxFrameSize.
	MaxFrameSize int `yaml:"max_frame_size" validate:"gte=0"`

	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it. Default is 5 minutes.
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gte=0" default:"5m"`

	// ShutdownTimeout bounds how long Stop waits for busy connections.
	// Default is 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0" default:"10s"`
}

// Address returns the listen address in the form "host:port".
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, cast.ToString(c.Port))
}
