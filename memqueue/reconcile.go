package memqueue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/pulseq/observability/logger"
)

// Reconcile moves every expired lease back to pending.
func (q *queue) Reconcile(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	return q.reconcileLocked(ctx, q.clock.Now())
}

// reconcileLocked returns every in-flight message whose lease expires at or
// before now to the tail of the pending list, in expiry order with ties broken
// by enqueue order. The receipt handle is cleared so the old lease can never
// ack again.
func (q *queue) reconcileLocked(ctx context.Context, now time.Time) int {
	moved := 0

	for {
		msg := q.leases.peek()
		if msg == nil || msg.LeaseExpiresAt.After(now) {
			break
		}

		heap.Pop(&q.leases)

		msg.state = StatePending
		msg.ReceiptHandle = ""
		msg.LeaseExpiresAt = time.Time{}
		msg.leasedAt = time.Time{}
		q.pending.Add(msg)

		moved++
	}

	if moved == 0 {
		return 0
	}

	q.metrics.redelivered.Inc(int64(moved))
	q.updateGaugesLocked()
	q.wakeLocked()

	q.logger.WithContext(ctx).
		With("count", moved).
		Debug("[memqueue]: expired leases returned to pending")

	return moved
}

const reaperShutdownTimeout = 10 * time.Second

// Reaper periodically reconciles expired leases so that pending work
// reappears even while no consumer is calling Dequeue or Ack.
type Reaper struct {
	queue    Queue
	interval time.Duration

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}

	logger logger.Logger
}

// NewReaper creates a Reaper that reconciles q every interval.
func NewReaper(q Queue, interval time.Duration) (*Reaper, error) {
	if q == nil {
		return nil, errx.New("[reaper]: queue is required")
	}
	if interval <= 0 {
		return nil, errx.New("[reaper]: interval must be positive", errx.WithDetails(errx.D{
			"interval": interval.String(),
		}))
	}

	return &Reaper{
		queue:     q,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		logger:    logger.Named("memqueue.reaper"),
	}, nil
}

// Start runs the reconcile loop.
// Blocks until Stop is called or ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) error {
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.With("interval", r.interval).Info("[reaper]: started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("[reaper]: context done, stopping")
			return nil

		case <-r.stopCh:
			r.logger.Info("[reaper]: stopped")
			return nil

		case <-ticker.C:
			r.queue.Reconcile(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for it to finish.
func (r *Reaper) Stop() error {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})

	select {
	case <-r.stoppedCh:
		return nil
	case <-time.After(reaperShutdownTimeout):
		return errx.New("[reaper]: shutdown timeout exceeded")
	}
}
