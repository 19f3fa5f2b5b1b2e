package memqueue

import (
	"bytes"
	"container/heap"
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
)

// Dequeue leases the message at the head of the pending list.
//
// Expired leases are reconciled first, so a message whose lease has just run
// out is eligible immediately. When the pending list is empty Dequeue returns
// (nil, nil) right away, or, if params.Wait is positive, waits outside the lock
// until a message arrives, the wait elapses or ctx is done.
func (q *queue) Dequeue(ctx context.Context, params DequeueParams) (*Delivery, error) {
	if params.Wait < 0 {
		return nil, errInvalidArgument("wait must not be negative", errx.D{"wait": params.Wait.String()})
	}

	wait := min(params.Wait, q.opts.maxWait)

	var deadline time.Time
	if wait > 0 {
		deadline = time.Now().Add(wait)
	}

	for {
		q.mu.Lock()

		if q.closed {
			q.mu.Unlock()
			return nil, errClosed()
		}

		now := q.clock.Now()
		q.reconcileLocked(ctx, now)

		if d := q.leaseLocked(now); d != nil {
			q.mu.Unlock()

			q.logger.WithContext(ctx).
				With("message_id", d.ID, "deliveries", d.Deliveries, "lease_expires_at", d.LeaseExpiresAt).
				Debug("[memqueue]: message delivered")

			return d, nil
		}

		waitCh := q.notify
		q.mu.Unlock()

		if wait == 0 {
			return nil, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			timer.Stop()
			return nil, errx.Wrap(ctx.Err())
		}
	}
}

// leaseLocked pops the pending head and moves it in flight.
// This is the only place a lease expiry is computed.
func (q *queue) leaseLocked(now time.Time) *Delivery {
	if q.pending.Length() == 0 {
		return nil
	}

	msg, _ := q.pending.Remove().(*Message) //nolint:errcheck // pending only ever holds *Message

	msg.state = StateInFlight
	msg.ReceiptHandle = uuid.NewString()
	msg.LeaseExpiresAt = now.Add(msg.VisibilityTimeout)
	msg.leasedAt = now
	msg.Deliveries++
	heap.Push(&q.leases, msg)

	q.metrics.delivered.Inc(1)
	q.updateGaugesLocked()

	return &Delivery{
		ID:             msg.ID,
		Body:           bytes.Clone(msg.Body),
		ReceiptHandle:  msg.ReceiptHandle,
		EnqueuedAt:     msg.EnqueuedAt,
		LeaseExpiresAt: msg.LeaseExpiresAt,
		Deliveries:     msg.Deliveries,
	}
}
