// Package interceptor provides the unary interceptors of gRPC clients.
//
//   - NewErrorUnwrap: converts gRPC status errors back to errx errors
//   - NewMetaForward: forwards request metadata from the context to the outgoing call
package interceptor
