package interceptor

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"google.golang.org/grpc"

	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

// NewLogger creates a new gRPC server interceptor for logging request and response information.
// This interceptor logs the details of each gRPC request, including method name, duration,
// and error information if applicable.
//
// The logger adapts its logging level based on the error type:
//   - For internal errors: ERROR level
//   - For other errors (validation, not found, etc.): WARN level
//   - For successful requests: INFO level
func NewLogger(base logger.Logger) wrgrpc.Interceptor {
	base = base.Named("grpc.server")

	return wrgrpc.Interceptor{
		Priority: 600,
		Handler: func(
			ctx context.Context,
			req any,
			info *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (any, error) {
			start := time.Now()

			resp, err := handler(ctx, req)

			log := base.WithContext(ctx).With(
				"method", info.FullMethod,
				"duration", time.Since(start),
			)

			const msg = "processed incoming gRPC unary request"
			switch {
			case err == nil:
				log.Info(msg)
			case errx.GetType(err) == errx.T_Internal:
				log.Errorx(err)
			default:
				log.With("error", errx.AsErrorX(err).Error(), "code", errx.AsErrorX(err).Code()).Warn(msg)
			}

			return resp, err
		},
	}
}
