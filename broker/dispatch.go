package broker

import (
	"context"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/protocol"
)

// dispatch runs req against q and builds the success response.
func dispatch(ctx context.Context, q memqueue.Queue, req protocol.Request) (protocol.Response, error) {
	switch req.Op {
	case protocol.OpEnqueue:
		id, err := q.Enqueue(ctx, memqueue.EnqueueParams{
			Body:              req.Body,
			VisibilityTimeout: req.VisibilityTimeoutDuration(),
		})
		if err != nil {
			return protocol.Response{}, errx.Wrap(err)
		}
		return protocol.Response{OK: true, ID: id}, nil

	case protocol.OpDequeue:
		d, err := q.Dequeue(ctx, memqueue.DequeueParams{Wait: req.WaitDuration()})
		if err != nil {
			// The server is stopping: end the long poll as an empty result.
			if ctx.Err() != nil {
				return protocol.Response{OK: true, Empty: true}, nil
			}
			return protocol.Response{}, errx.Wrap(err)
		}
		return deliveryResponse(d), nil

	case protocol.OpAck:
		if err := q.Ack(ctx, req.ID, req.ReceiptHandle); err != nil {
			return protocol.Response{}, errx.Wrap(err)
		}
		return protocol.Response{OK: true}, nil

	default:
		return protocol.Response{}, errx.New(
			"[broker]: unsupported op",
			errx.WithCode(protocol.CodeProtocolError),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"op": string(req.Op)}),
		)
	}
}

func deliveryResponse(d *memqueue.Delivery) protocol.Response {
	if d == nil {
		return protocol.Response{OK: true, Empty: true}
	}
	return protocol.Response{
		OK:            true,
		ID:            d.ID,
		Body:          d.Body,
		ReceiptHandle: d.ReceiptHandle,
		Deliveries:    d.Deliveries,
		LeaseExpires:  lo.ToPtr(d.LeaseExpiresAt.UTC()),
	}
}
