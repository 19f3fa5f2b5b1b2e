// Package ucdef defines the shape of the use cases served by the transports.
package ucdef

import "context"

// UserAction is a synchronous operation requested by a client over HTTP or
// gRPC. The transport decodes and validates I, calls Execute and writes O back
// as the response; a returned error is mapped to a transport error by its errx
// type and code.
//
// Type parameters:
//   - I: input, decoded from the request (a pointer to a struct)
//   - O: output, encoded as the response
type UserAction[I, O any] interface {
	// OperationID returns a unique identifier for the use case. It is used
	// in logs and traces.
	OperationID() string

	// Execute executes the use case.
	Execute(ctx context.Context, in I) (O, error)
}
