package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/rise-and-shine/pulseq/grpc/server/wrgrpc"
	"github.com/rise-and-shine/pulseq/meta"
	"github.com/rise-and-shine/pulseq/observability/tracing"
)

const (
	transportGRPC = "grpc"
	mdUserAgent   = "user-agent"
)

// NewMetaInject creates a new gRPC server interceptor that injects metadata from incoming
// gRPC requests into the context, so trace and request ids reach the handlers and logs.
//
// A trace id forwarded by the caller wins over one derived from the current span.
func NewMetaInject() wrgrpc.Interceptor {
	return wrgrpc.Interceptor{
		Priority: 700,
		Handler: func(
			ctx context.Context,
			req any,
			info *grpc.UnaryServerInfo,
			handler grpc.UnaryHandler,
		) (any, error) {
			md, _ := metadata.FromIncomingContext(ctx)

			values := map[meta.ContextKey]string{
				meta.TraceID:   firstOf(md, string(meta.TraceID)),
				meta.RequestID: firstOf(md, string(meta.RequestID)),
				meta.UserAgent: firstOf(md, mdUserAgent),
				meta.Transport: transportGRPC,
				meta.Operation: info.FullMethod,
			}
			if values[meta.TraceID] == "" {
				values[meta.TraceID] = tracing.GetStartingTraceID(ctx)
			}
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				values[meta.RemoteAddr] = p.Addr.String()
			}

			return handler(meta.InjectMetaToContext(ctx, values), req)
		},
	}
}

func firstOf(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}
