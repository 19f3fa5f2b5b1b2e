package wrgrpc

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// Interceptor is a unary interceptor with a place in the chain. A higher
// Priority runs closer to the wire, so recovery and logging see every call
// before the queue handlers do.
type Interceptor struct {
	Priority int
	Handler  grpc.UnaryServerInterceptor
}

// chain orders interceptors by descending priority, keeping the given order
// for equal priorities, and drops nil handlers.
func chain(interceptors []Interceptor) []grpc.UnaryServerInterceptor {
	sorted := slices.Clone(interceptors)
	slices.SortStableFunc(sorted, func(a, b Interceptor) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	handlers := make([]grpc.UnaryServerInterceptor, 0, len(sorted))
	for _, ic := range sorted {
		if ic.Handler != nil {
			handlers = append(handlers, ic.Handler)
		}
	}
	return handlers
}
