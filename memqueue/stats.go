package memqueue

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// Stats returns statistics about the queue.
func (q *queue) Stats(_ context.Context) Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{
		Pending:     q.pending.Length(),
		InFlight:    q.leases.Len(),
		Enqueued:    q.metrics.enqueued.Count(),
		Delivered:   q.metrics.delivered.Count(),
		Redelivered: q.metrics.redelivered.Count(),
		Acked:       q.metrics.acked.Count(),
	}

	// Redelivered messages keep their original enqueue time, so the head of
	// the pending list is not necessarily the oldest.
	var oldest time.Time
	for i := range q.pending.Length() {
		msg, _ := q.pending.Get(i).(*Message) //nolint:errcheck // pending only ever holds *Message
		if oldest.IsZero() || msg.EnqueuedAt.Before(oldest) {
			oldest = msg.EnqueuedAt
		}
	}
	if !oldest.IsZero() {
		stats.OldestPending = lo.ToPtr(oldest)
	}

	return stats
}

// Inspect reports where a live message currently is.
func (q *queue) Inspect(_ context.Context, id string) (MessageInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.messages[id]
	if !ok {
		return MessageInfo{}, errNotFound(id)
	}

	info := MessageInfo{
		ID:         msg.ID,
		State:      msg.state,
		EnqueuedAt: msg.EnqueuedAt,
		Deliveries: msg.Deliveries,
	}
	if msg.state == StateInFlight {
		info.LeaseExpiresAt = lo.ToPtr(msg.LeaseExpiresAt)
	}

	return info, nil
}

// Purge removes every pending message. In-flight leases are untouched.
func (q *queue) Purge(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, errClosed()
	}

	purged := q.pending.Length()
	for range purged {
		msg, _ := q.pending.Remove().(*Message) //nolint:errcheck // pending only ever holds *Message
		delete(q.messages, msg.ID)
	}
	q.updateGaugesLocked()

	q.logger.WithContext(ctx).With("count", purged).Info("[memqueue]: pending messages purged")

	return purged, nil
}
