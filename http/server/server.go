// Package server provides a configurable HTTP server implementation based on the Fiber framework.
package server

import (
	"net"

	"github.com/code19m/errx"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// HTTPServer provides an HTTP server with configurable middleware.
//
// The server is built on top of the Fiber framework and supports prioritized middleware registration.
// Use NewHTTPServer to create a new instance.
type HTTPServer struct {
	cfg        Config
	router     *fiber.App
	listenAddr string
}

// NewHTTPServer creates a new HTTPServer with the provided configuration and middleware.
//
// The middlewares slice is applied in order of descending priority. The server uses a custom error handler
// for consistent error responses. Returns a pointer to the initialized HTTPServer.
func NewHTTPServer(cfg Config, middlewares []Middleware) *HTTPServer {
	router := fiber.New(fiber.Config{
		ReadTimeout:              cfg.ReadTimeout,
		WriteTimeout:             cfg.WriteTimeout,
		IdleTimeout:              cfg.IdleTimeout,
		ErrorHandler:             customErrorHandler(cfg.HideErrorDetails),
		DisableStartupMessage:    true,
		Immutable:                true,
		BodyLimit:                cfg.BodyLimit,
		EnableSplittingOnParsers: true,
		JSONEncoder:              json.Marshal,
		JSONDecoder:              json.Unmarshal,
	})

	applyMiddlewares(router, middlewares)

	return &HTTPServer{
		cfg:        cfg,
		router:     router,
		listenAddr: cfg.Address(),
	}
}

// RegisterRouter registers a router with the server using the provided register function.
func (s *HTTPServer) RegisterRouter(registerFunc func(r fiber.Router)) {
	registerFunc(s.router)
}

// App returns the underlying Fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.router
}

// Start begins listening for incoming HTTP requests on the configured address.
func (s *HTTPServer) Start() error {
	return errx.Wrap(s.router.Listen(s.listenAddr))
}

// Serve handles requests arriving on ln until Stop is called.
func (s *HTTPServer) Serve(ln net.Listener) error {
	return errx.Wrap(s.router.Listener(ln))
}

// Stop gracefully stops the server, allowing for ongoing requests to complete
// within the configured shutdown timeout.
func (s *HTTPServer) Stop() error {
	return errx.Wrap(s.router.ShutdownWithTimeout(s.cfg.ShutdownTimeout))
}
