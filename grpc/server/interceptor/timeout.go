package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
)

// NewTimeout creates an interceptor that enforces a maximum execution time for gRPC handlers.
// If the handler does not complete within the specified duration, the context will be canceled,
// which should propagate to any ongoing operations within the handler.
func NewTimeout(duration time.Duration) wrgrpc.Interceptor {
	return wrgrpc.Interceptor{
		Priority: 800,
		Handler: func(
			ctx context.Context,
			req any,
			_ *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, duration)
			defer cancel()
			return handler(ctx, req)
		},
	}
}
