package usecase

import (
	"context"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/ucdef"
)

// StatsInput takes no parameters.
type StatsInput struct{}

// StatsOutput is a snapshot of the queue counters.
type StatsOutput struct {
	memqueue.Stats
}

// Stats reports queue counters.
type Stats = ucdef.UserAction[*StatsInput, *StatsOutput]

type stats struct {
	queue memqueue.Queue
}

// NewStats creates the Stats use case over q.
func NewStats(q memqueue.Queue) Stats {
	return &stats{queue: q}
}

func (uc *stats) OperationID() string { return OpGetStats }

func (uc *stats) Execute(ctx context.Context, _ *StatsInput) (*StatsOutput, error) {
	return &StatsOutput{Stats: uc.queue.Stats(ctx)}, nil
}
