package usecase

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// AckInput identifies the lease to acknowledge.
type AckInput struct {
	ID            string `json:"id"             validate:"required,not_blank"`
	ReceiptHandle string `json:"receipt_handle" validate:"required,not_blank"`
}

// AckOutput confirms the acknowledgement.
type AckOutput struct {
	OK bool `json:"ok"`
}

// Ack removes an in-flight message.
type Ack = ucdef.UserAction[*AckInput, *AckOutput]

type ack struct {
	queue memqueue.Queue
}

// NewAck creates the Ack use case over q.
func NewAck(q memqueue.Queue) Ack {
	return &ack{queue: q}
}

func (uc *ack) OperationID() string { return OpAckMessage }

func (uc *ack) Execute(ctx context.Context, in *AckInput) (*AckOutput, error) {
	err := uc.queue.Ack(ctx, in.ID, in.ReceiptHandle)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &AckOutput{OK: true}, nil
}
