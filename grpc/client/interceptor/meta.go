package interceptor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/rise-and-shine/pulseq/meta"
)

// NewMetaForward creates a new interceptor that forwards the trace and request
// ids from the context to the called service.
func NewMetaForward() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		kv := make([]string, 0, 4)
		for _, k := range []meta.ContextKey{meta.TraceID, meta.RequestID} {
			if v := meta.Find(ctx, k); v != "" {
				kv = append(kv, string(k), v)
			}
		}

		if len(kv) > 0 {
			ctx = metadata.AppendToOutgoingContext(ctx, kv...)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
