package usecase

import (
	"context"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// EnqueueInput is the request to add a message.
type EnqueueInput struct {
	// Body travels as base64 in JSON.
	Body []byte `json:"body" validate:"required" mask:"true"`

	// VisibilityTimeout is the lease length in seconds. Omit it to use the
	// queue default.
	VisibilityTimeout *int64 `json:"visibility_timeout,omitempty" validate:"omitempty,gte=0"`
}

// EnqueueOutput carries the id of the new message.
type EnqueueOutput struct {
	ID string `json:"id"`
}

// Enqueue adds a message to the queue.
type Enqueue = ucdef.UserAction[*EnqueueInput, *EnqueueOutput]

type enqueue struct {
	queue memqueue.Queue
}

// NewEnqueue creates the Enqueue use case over q.
func NewEnqueue(q memqueue.Queue) Enqueue {
	return &enqueue{queue: q}
}

func (uc *enqueue) OperationID() string { return OpEnqueueMessage }

func (uc *enqueue) Execute(ctx context.Context, in *EnqueueInput) (*EnqueueOutput, error) {
	params := memqueue.EnqueueParams{Body: in.Body}
	if in.VisibilityTimeout != nil {
		params.VisibilityTimeout = lo.ToPtr(seconds(*in.VisibilityTimeout))
	}

	id, err := uc.queue.Enqueue(ctx, params)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &EnqueueOutput{ID: id}, nil
}
