package usecase

import (
	"context"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// InspectInput names the message to look up.
type InspectInput struct {
	ID string `json:"id" query:"id" validate:"required,not_blank"`
}

// InspectOutput describes where a live message is. The body is never returned.
type InspectOutput struct {
	ID             string     `json:"id"`
	State          string     `json:"state"`
	EnqueuedAt     time.Time  `json:"enqueued_at"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	Deliveries     int        `json:"deliveries"`
}

// Inspect reports the state of a live message.
type Inspect = ucdef.UserAction[*InspectInput, *InspectOutput]

type inspect struct {
	queue memqueue.Queue
}

// NewInspect creates the Inspect use case over q.
func NewInspect(q memqueue.Queue) Inspect {
	return &inspect{queue: q}
}

func (uc *inspect) OperationID() string { return OpInspectMessage }

func (uc *inspect) Execute(ctx context.Context, in *InspectInput) (*InspectOutput, error) {
	info, err := uc.queue.Inspect(ctx, in.ID)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	out := &InspectOutput{
		ID:         info.ID,
		State:      string(info.State),
		EnqueuedAt: info.EnqueuedAt.UTC(),
		Deliveries: info.Deliveries,
	}
	if info.LeaseExpiresAt != nil {
		expires := info.LeaseExpiresAt.UTC()
		out.LeaseExpiresAt = &expires
	}
	return out, nil
}
