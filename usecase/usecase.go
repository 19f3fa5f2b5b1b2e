// Package usecase exposes the queue operations as ucdef.UserAction values
// shared by the HTTP and gRPC APIs.
package usecase

import (
	"math"
	"time"

	"github.com/rise-and-shine/pulseq/memqueue"
)

// Operation ids.
const (
	OpEnqueueMessage = "enqueue_message"
	OpDequeueMessage = "dequeue_message"
	OpAckMessage     = "ack_message"
	OpGetStats       = "get_stats"
	OpInspectMessage = "inspect_message"
	OpPurgeQueue     = "purge_queue"
)

// seconds converts n to a duration, saturating instead of overflowing.
func seconds(n int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Second)
	if n > limit {
		return math.MaxInt64
	}
	return time.Duration(n) * time.Second
}

// Set bundles every use case so transports can be wired in one call.
type Set struct {
	Enqueue Enqueue
	Dequeue Dequeue
	Ack     Ack
	Stats   Stats
	Inspect Inspect
	Purge   Purge
}

// NewSet creates all use cases over q.
func NewSet(q memqueue.Queue) Set {
	return Set{
		Enqueue: NewEnqueue(q),
		Dequeue: NewDequeue(q),
		Ack:     NewAck(q),
		Stats:   NewStats(q),
		Inspect: NewInspect(q),
		Purge:   NewPurge(q),
	}
}
