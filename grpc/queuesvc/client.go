package queuesvc

import (
	"context"

	"github.com/code19m/errx"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rise-and-shine/pulseq/grpc/client/interceptor"
	"github.com/rise-and-shine/pulseq/usecase"
)

// Client calls pulseq.v1.QueueService. Errors come back as errx errors with
// the codes the server produced.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection. The connection should carry the
// interceptors from DialOptions.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// DialOptions returns the options every queue client connection needs.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithChainUnaryInterceptor(
			interceptor.NewMetaForward(),
			interceptor.NewErrorUnwrap(),
		),
	}
}

// Dial creates a client connection to target.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	cc, err := grpc.NewClient(target, append(DialOptions(), opts...)...)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return cc, nil
}

func (c *Client) Enqueue(ctx context.Context, in *usecase.EnqueueInput) (*usecase.EnqueueOutput, error) {
	return invoke[usecase.EnqueueOutput](ctx, c.cc, MethodEnqueue, in)
}

func (c *Client) Dequeue(ctx context.Context, in *usecase.DequeueInput) (*usecase.DequeueOutput, error) {
	return invoke[usecase.DequeueOutput](ctx, c.cc, MethodDequeue, in)
}

func (c *Client) Ack(ctx context.Context, in *usecase.AckInput) (*usecase.AckOutput, error) {
	return invoke[usecase.AckOutput](ctx, c.cc, MethodAck, in)
}

func (c *Client) Stats(ctx context.Context) (*usecase.StatsOutput, error) {
	return invoke[usecase.StatsOutput](ctx, c.cc, MethodStats, &usecase.StatsInput{})
}

func (c *Client) Inspect(ctx context.Context, id string) (*usecase.InspectOutput, error) {
	return invoke[usecase.InspectOutput](ctx, c.cc, MethodInspect, &usecase.InspectInput{ID: id})
}

func (c *Client) Purge(ctx context.Context) (*usecase.PurgeOutput, error) {
	return invoke[usecase.PurgeOutput](ctx, c.cc, MethodPurge, &usecase.PurgeInput{})
}

func invoke[O any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any) (*O, error) {
	out := new(O)
	if err := cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}
