package usecase

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// DequeueInput is the request to lease the next message.
type DequeueInput struct {
	// WaitSeconds lets the call long-poll when the queue is empty.
	WaitSeconds *int64 `json:"wait_seconds,omitempty" validate:"omitempty,gte=0"`
}

// DequeueOutput is a leased message, or Empty when nothing was available.
type DequeueOutput struct {
	ID             string     `json:"id,omitempty"`
	Body           []byte     `json:"body,omitempty"             mask:"true"`
	ReceiptHandle  string     `json:"receipt_handle,omitempty"`
	Deliveries     int        `json:"deliveries,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	Empty          bool       `json:"empty"`
}

// Dequeue leases the oldest pending message.
type Dequeue = ucdef.UserAction[*DequeueInput, *DequeueOutput]

type dequeue struct {
	queue memqueue.Queue
}

// NewDequeue creates the Dequeue use case over q.
func NewDequeue(q memqueue.Queue) Dequeue {
	return &dequeue{queue: q}
}

func (uc *dequeue) OperationID() string { return OpDequeueMessage }

func (uc *dequeue) Execute(ctx context.Context, in *DequeueInput) (*DequeueOutput, error) {
	var wait time.Duration
	if in.WaitSeconds != nil {
		wait = seconds(*in.WaitSeconds)
	}

	d, err := uc.queue.Dequeue(ctx, memqueue.DequeueParams{Wait: wait})
	if err != nil {
		return nil, errx.Wrap(err)
	}
	if d == nil {
		return &DequeueOutput{Empty: true}, nil
	}

	return &DequeueOutput{
		ID:             d.ID,
		Body:           d.Body,
		ReceiptHandle:  d.ReceiptHandle,
		Deliveries:     d.Deliveries,
		LeaseExpiresAt: lo.ToPtr(d.LeaseExpiresAt.UTC()),
	}, nil
}
