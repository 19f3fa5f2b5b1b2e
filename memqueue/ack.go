package memqueue

import (
	"container/heap"
	"context"

	"github.com/code19m/errx"
)

// Ack acknowledges an in-flight message, removing it from the queue.
//
// The message must be in flight and receiptHandle must belong to its current
// lease. A handle from an earlier lease, superseded after the message expired
// and was delivered again, is rejected with a HANDLE_MISMATCH error and changes
// nothing.
func (q *queue) Ack(ctx context.Context, id, receiptHandle string) error {
	if id == "" || receiptHandle == "" {
		return errInvalidArgument("id and receipt handle are required", errx.D{
			"id":             id,
			"receipt_handle": receiptHandle,
		})
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errClosed()
	}

	now := q.clock.Now()
	q.reconcileLocked(ctx, now)

	msg, ok := q.messages[id]
	if !ok || msg.state != StateInFlight {
		q.metrics.ackRejected.Inc(1)
		return errNotFound(id)
	}

	if msg.ReceiptHandle != receiptHandle {
		q.metrics.ackRejected.Inc(1)
		return errHandleMismatch(id)
	}

	heap.Remove(&q.leases, msg.heapIndex)
	delete(q.messages, id)

	q.metrics.acked.Inc(1)
	q.metrics.leaseDuration.Update(now.Sub(msg.leasedAt))
	q.updateGaugesLocked()

	q.logger.WithContext(ctx).
		With("message_id", id, "deliveries", msg.Deliveries).
		Debug("[memqueue]: message acked")

	return nil
}
