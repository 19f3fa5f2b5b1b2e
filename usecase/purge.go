package usecase

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// PurgeInput takes no parameters.
type PurgeInput struct{}

// PurgeOutput reports how many pending messages were dropped.
type PurgeOutput struct {
	Purged int `json:"purged"`
}

// Purge drops every pending message. Leased messages are kept.
type Purge = ucdef.UserAction[*PurgeInput, *PurgeOutput]

type purge struct {
	queue memqueue.Queue
}

// NewPurge creates the Purge use case over q.
func NewPurge(q memqueue.Queue) Purge {
	return &purge{queue: q}
}

func (uc *purge) OperationID() string { return OpPurgeQueue }

func (uc *purge) Execute(ctx context.Context, _ *PurgeInput) (*PurgeOutput, error) {
	purged, err := uc.queue.Purge(ctx)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &PurgeOutput{Purged: purged}, nil
}
