package interceptor

import (
	"context"

	"github.com/code19m/errx"
	"google.golang.org/grpc"

	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
)

// NewErrorWrap creates an interceptor that converts errx errors into gRPC
// status errors, so clients can restore them with errx.FromGRPCError.
func NewErrorWrap(serviceName string) wrgrpc.Interceptor {
	return wrgrpc.Interceptor{
		Priority: 1000,
		Handler: func(
			ctx context.Context,
			req any,
			_ *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (any, error) {
			resp, err := handler(ctx, req)
			if err != nil {
				return nil, errx.ToGRPCError(err, errx.WithTracePrefix(serviceName))
			}
			return resp, nil
		},
	}
}
