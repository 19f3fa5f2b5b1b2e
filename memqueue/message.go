package memqueue

import (
	"time"
)

// State is the position of a live message in the queue.
type State string

const (
	// StatePending means the message is waiting to be delivered.
	StatePending State = "pending"

	// StateInFlight means the message is leased to a consumer.
	StateInFlight State = "in_flight"
)

// Message is the engine's record of a single unit of work.
type Message struct {
	// ID is assigned by the engine at enqueue time.
	ID string

	// Body is the opaque payload. The engine never inspects it.
	Body []byte

	// EnqueuedAt is set once, when the message is created.
	EnqueuedAt time.Time

	// VisibilityTimeout is the lease length applied on every dequeue. It is
	// the value requested at enqueue time, or the queue default.
	VisibilityTimeout time.Duration

	// ReceiptHandle identifies the current lease. Empty while pending.
	ReceiptHandle string

	// LeaseExpiresAt is set by dequeue only. Zero while pending.
	LeaseExpiresAt time.Time

	// Deliveries counts how many times the message has been handed out.
	Deliveries int

	state     State
	seq       uint64
	leasedAt  time.Time
	heapIndex int
}

// EnqueueParams contains parameters for enqueueing a message.
type EnqueueParams struct {
	// Body is the message payload (required, non-empty).
	Body []byte

	// VisibilityTimeout overrides the queue default lease length (optional).
	// Must be a whole number of seconds between 0 and the configured maximum.
	// Zero makes the message visible again as soon as it is delivered.
	VisibilityTimeout *time.Duration
}

// DequeueParams contains parameters for dequeueing a message.
type DequeueParams struct {
	// Wait is how long to wait for a message when none is pending.
	// Zero returns immediately. Values above the configured maximum are capped.
	Wait time.Duration
}

// Delivery is what a consumer receives from Dequeue.
type Delivery struct {
	ID             string
	Body           []byte
	ReceiptHandle  string
	EnqueuedAt     time.Time
	LeaseExpiresAt time.Time

	// Deliveries is 1 on first delivery and grows with every redelivery.
	Deliveries int
}

// MessageInfo describes a live message without exposing its body.
type MessageInfo struct {
	ID             string
	State          State
	EnqueuedAt     time.Time
	LeaseExpiresAt *time.Time
	Deliveries     int
}

// Stats contains statistics about the queue.
type Stats struct {
	// Pending is the number of messages ready for delivery.
	Pending int `json:"pending"`

	// InFlight is the number of messages currently leased.
	InFlight int `json:"in_flight"`

	// Enqueued is the total number of accepted messages.
	Enqueued int64 `json:"enqueued"`

	// Delivered is the total number of successful dequeues, redeliveries included.
	Delivered int64 `json:"delivered"`

	// Redelivered is the total number of leases that expired without an ack.
	Redelivered int64 `json:"redelivered"`

	// Acked is the total number of messages removed by ack.
	Acked int64 `json:"acked"`

	// OldestPending is the enqueue time of the oldest pending message.
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
}
