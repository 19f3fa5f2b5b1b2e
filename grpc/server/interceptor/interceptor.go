// Package interceptor provides the unary interceptors of the gRPC server.
//
// Interceptors run in descending priority order:
//   - NewErrorWrap (1000): converts errors to gRPC status errors
//   - NewRecovery (900): turns panics into internal errors
//   - NewTimeout (800): bounds the handler context
//   - NewMetaInject (700): injects request metadata into the context
//   - NewLogger (600): logs every request
package interceptor
