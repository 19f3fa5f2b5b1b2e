// Package middleware provides a collection of Fiber middleware components
// for building HTTP servers with standardized behavior.
//
// The middleware components in this package handle common cross-cutting
// concerns such as request logging, error handling, tracing, recovery from
// panics, timeout management, metadata propagation, and error alerting.
// They are designed to work with the server package and follow a consistent
// priority-based execution order.
//
// Middleware Execution Order:
//
// Each middleware declares a Priority value that determines its execution order:
//
//   - Recovery (1000): Catches panics in the middleware chain
//   - Tracing (900): Creates spans for request tracing
//   - Timeout (800): Applies timeouts to request contexts
//   - MetaInject (700): Injects metadata into the request context
//   - Alerting (600): Sends alerts for internal server errors
//   - Logger (500): Logs request and response details
//   - ErrorHandler (400): Converts errors to standardized responses
//
// Higher priority values are executed earlier in the request pipeline.
//
// Usage Example:
//
//	srv := server.NewHTTPServer(cfg, []server.Middleware{
//		middleware.NewRecoveryMW(log),
//		middleware.NewTracingMW(),
//		middleware.NewTimeoutMW(cfg.HandleTimeout),
//		middleware.NewMetaInjectMW(),
//		middleware.NewAlertingMW(nil),
//		middleware.NewLoggerMW(log),
//		middleware.NewErrorHandlerMW(cfg.HideErrorDetails),
//	})
//
// Alternatively, each middleware can be applied individually:
//
//	app.Use(middleware.NewRecoveryMW(log).Handler)
package middleware
