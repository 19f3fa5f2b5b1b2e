// Package wrgrpc wraps grpc.Server with prioritized interceptors, tracing and
// a bounded graceful stop.
package wrgrpc

import (
	"net"
	"time"

	"github.com/code19m/errx"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// Server is a wrapper around the standard gRPC server that implements
// a consistent server interface with sensible defaults and additional features.
type Server struct {
	cfg        Config
	server     *grpc.Server
	listenAddr string
}

// NewGRPC creates a new gRPC server with the specified configuration and interceptors.
// Interceptors run in descending priority order.
func NewGRPC(cfg Config, interceptors []Interceptor, opts ...grpc.ServerOption) *Server {
	unaryInterceptors := chain(interceptors)

	options := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxReceiveMessageLength),
		grpc.MaxSendMsgSize(MaxSendMessageLength),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}

	if len(unaryInterceptors) > 0 {
		options = append(options, grpc.ChainUnaryInterceptor(unaryInterceptors...))
	}

	return &Server{
		cfg:        cfg,
		server:     grpc.NewServer(append(options, opts...)...),
		listenAddr: cfg.Address(),
	}
}

// Register registers grpc services implementations with the gRPC server
// through a callback function.
func (s *Server) Register(registerFunc func(server *grpc.Server)) {
	registerFunc(s.server)
	if s.cfg.Reflection {
		reflection.Register(s.server)
	}
}

// Start starts the gRPC server on the configured address.
func (s *Server) Start() error {
	socket, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return errx.Wrap(err)
	}
	return s.Serve(socket)
}

// Serve accepts connections on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	err := s.server.Serve(ln)
	if err != nil {
		return errx.Wrap(err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.listenAddr
}

// Stop gracefully stops the gRPC server. RPCs still running after the
// shutdown timeout are cancelled.
func (s *Server) Stop() {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout):
		s.server.Stop()
		<-done
	}
}
