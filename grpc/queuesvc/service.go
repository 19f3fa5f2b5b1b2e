// Package queuesvc serves the queue use cases as the gRPC service
// pulseq.v1.QueueService, encoded with a JSON codec.
package queuesvc

import (
	"context"

	"github.com/code19m/errx"
	"google.golang.org/grpc"

	"github.com/rise-and-shine/pulseq/usecase"
	"github.com/rise-and-shine/pulseq/val"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pulseq.v1.QueueService"

// Full method names.
const (
	MethodEnqueue = "/" + ServiceName + "/Enqueue"
	MethodDequeue = "/" + ServiceName + "/Dequeue"
	MethodAck     = "/" + ServiceName + "/Ack"
	MethodStats   = "/" + ServiceName + "/Stats"
	MethodInspect = "/" + ServiceName + "/Inspect"
	MethodPurge   = "/" + ServiceName + "/Purge"
)

const codeInvalidRequest = "INVALID_REQUEST"

// QueueServer is the server API of pulseq.v1.QueueService.
type QueueServer interface {
	Enqueue(ctx context.Context, in *usecase.EnqueueInput) (*usecase.EnqueueOutput, error)
	Dequeue(ctx context.Context, in *usecase.DequeueInput) (*usecase.DequeueOutput, error)
	Ack(ctx context.Context, in *usecase.AckInput) (*usecase.AckOutput, error)
	Stats(ctx context.Context, in *usecase.StatsInput) (*usecase.StatsOutput, error)
	Inspect(ctx context.Context, in *usecase.InspectInput) (*usecase.InspectOutput, error)
	Purge(ctx context.Context, in *usecase.PurgeInput) (*usecase.PurgeOutput, error)
}

// Service implements QueueServer over the queue use cases. Every input is
// validated before it reaches a use case.
type Service struct {
	set usecase.Set
}

// NewService creates the gRPC service for set.
func NewService(set usecase.Set) *Service {
	return &Service{set: set}
}

// Register returns a function that registers the service on a grpc.Server.
func Register(srv QueueServer) func(s *grpc.Server) {
	return func(s *grpc.Server) {
		s.RegisterService(&serviceDesc, srv)
	}
}

func (s *Service) Enqueue(ctx context.Context, in *usecase.EnqueueInput) (*usecase.EnqueueOutput, error) {
	return execute(ctx, s.set.Enqueue.Execute, in)
}

func (s *Service) Dequeue(ctx context.Context, in *usecase.DequeueInput) (*usecase.DequeueOutput, error) {
	return execute(ctx, s.set.Dequeue.Execute, in)
}

func (s *Service) Ack(ctx context.Context, in *usecase.AckInput) (*usecase.AckOutput, error) {
	return execute(ctx, s.set.Ack.Execute, in)
}

func (s *Service) Stats(ctx context.Context, in *usecase.StatsInput) (*usecase.StatsOutput, error) {
	return execute(ctx, s.set.Stats.Execute, in)
}

func (s *Service) Inspect(ctx context.Context, in *usecase.InspectInput) (*usecase.InspectOutput, error) {
	return execute(ctx, s.set.Inspect.Execute, in)
}

func (s *Service) Purge(ctx context.Context, in *usecase.PurgeInput) (*usecase.PurgeOutput, error) {
	return execute(ctx, s.set.Purge.Execute, in)
}

func execute[I, O any](ctx context.Context, fn func(context.Context, I) (O, error), in I) (O, error) {
	if err := val.ValidateSchema(in); err != nil {
		var zero O
		return zero, errx.Wrap(err)
	}

	out, err := fn(ctx, in)
	if err != nil {
		return out, errx.Wrap(err)
	}
	return out, nil
}

//nolint:gochecknoglobals // service descriptors are static
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueueServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enqueue", Handler: unaryHandler(MethodEnqueue, QueueServer.Enqueue)},
		{MethodName: "Dequeue", Handler: unaryHandler(MethodDequeue, QueueServer.Dequeue)},
		{MethodName: "Ack", Handler: unaryHandler(MethodAck, QueueServer.Ack)},
		{MethodName: "Stats", Handler: unaryHandler(MethodStats, QueueServer.Stats)},
		{MethodName: "Inspect", Handler: unaryHandler(MethodInspect, QueueServer.Inspect)},
		{MethodName: "Purge", Handler: unaryHandler(MethodPurge, QueueServer.Purge)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pulseq/v1/queue.json",
}

// unaryHandler adapts a QueueServer method to a grpc.MethodHandler.
func unaryHandler[I, O any](
	fullMethod string,
	method func(QueueServer, context.Context, *I) (*O, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(I)
		if err := dec(in); err != nil {
			return nil, errx.Wrap(err, errx.WithCode(codeInvalidRequest), errx.WithType(errx.T_Validation))
		}

		qs, _ := srv.(QueueServer) //nolint:errcheck // HandlerType guarantees the type
		if interceptor == nil {
			return method(qs, ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			r, _ := req.(*I) //nolint:errcheck // interceptors pass the request through
			return method(qs, ctx, r)
		}
		return interceptor(ctx, in, info, handler)
	}
}
