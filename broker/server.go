// Package broker serves a memqueue.Queue over TCP using the newline delimited
// JSON protocol from the protocol package.
package broker

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Server accepts TCP connections and serves each one on its own goroutine.
// Connections share nothing but the queue.
type Server struct {
	cfg     Config
	queue   memqueue.Queue
	opts    serverOptions
	logger  logger.Logger
	metrics *brokerMetrics

	// baseCtx parents every request context; it is cancelled by Stop so
	// long-polling dequeues return early.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[*conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// NewServer creates a broker for q.
func NewServer(cfg Config, q memqueue.Queue, opts ...Option) (*Server, error) {
	if q == nil {
		return nil, errx.New("[broker]: queue is required")
	}

	o := defaultServerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("broker")
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		queue:      q,
		opts:       o,
		logger:     o.logger.Named("server"),
		metrics:    newBrokerMetrics(o.registry),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		conns:      make(map[*conn]struct{}),
	}, nil
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return errx.Wrap(err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called. It returns nil after
// a clean Stop and takes ownership of ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.With("addr", ln.Addr().String()).Info("[broker]: listening")

	backoff := time.Duration(0)
	for {
		raw, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errx.Wrap(err)
			}

			backoff = min(max(backoff*2, minAcceptBackoff), maxAcceptBackoff)
			s.logger.With("error", err.Error(), "retry_in", backoff).Warn("[broker]: accept failed")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		c := newConn(s, raw)
		if !s.track(c) {
			_ = raw.Close()
			return nil
		}

		go func() {
			defer s.untrack(c)
			c.serve(s.baseCtx)
		}()
	}
}

// Addr returns the listener address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting connections, wakes idle connections so they close,
// and waits for busy ones to finish their current request. Connections still
// open after ShutdownTimeout are closed forcibly.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	// Unblock every pending read. Handlers re-arm their deadline under mu
	// and see closing, so no connection can start a new request.
	now := time.Now()
	for c := range s.conns {
		_ = c.raw.SetReadDeadline(now)
	}
	s.mu.Unlock()

	s.cancelBase()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout):
		s.logger.Warn("[broker]: shutdown timeout exceeded, closing connections")
		s.closeAll()
		<-done
	}

	s.logger.Info("[broker]: stopped")

	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return errx.Wrap(err)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	s.metrics.accepted.Inc(1)
	s.metrics.connections.Update(int64(len(s.conns)))
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.metrics.connections.Update(int64(len(s.conns)))
	s.mu.Unlock()

	s.wg.Done()
}

// armRead sets the read deadline for the next request on c, or reports false
// when the server is shutting down.
func (s *Server) armRead(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}

	var deadline time.Time
	if s.cfg.IdleTimeout > 0 {
		deadline = time.Now().Add(s.cfg.IdleTimeout)
	}
	_ = c.raw.SetReadDeadline(deadline)
	return true
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.conns {
		_ = c.raw.Close()
	}
}
