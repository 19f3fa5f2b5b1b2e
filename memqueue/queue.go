// Package memqueue provides a single-node, in-memory message queue with
// at-least-once delivery.
//
// A message is either pending (eligible for delivery, FIFO by enqueue order) or
// in-flight (leased to exactly one consumer until its visibility timeout
// elapses). Every dequeue issues a fresh receipt handle; only the handle of the
// current lease can acknowledge the message. When a lease expires the message
// goes back to the tail of the pending list and its old handle stops working.
//
// # Reconciliation
//
// Expired leases are returned to pending in two ways:
//
//   - inline, at the start of every Dequeue and Ack, so work that just became
//     visible again is never hidden behind an empty pending list;
//   - periodically, by a Reaper, which bounds how stale the pending list can get
//     while no client is calling.
//
// Both paths take the same mutex as every other operation. Nothing blocks while
// holding it: a long-polling Dequeue waits outside the lock and is woken when
// Enqueue or reconciliation makes work available.
package memqueue

import (
	"context"
	"sync"

	"github.com/code19m/errx"
	fifo "github.com/eapache/queue"

	"github.com/rise-and-shine/pulseq/clock"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

// Queue defines the operations of a single queue instance.
// All methods are safe for concurrent use.
type Queue interface {
	// Enqueue appends a message to the pending list and returns its id.
	Enqueue(ctx context.Context, params EnqueueParams) (string, error)

	// Dequeue leases the oldest pending message. It returns a nil Delivery
	// when nothing is available within params.Wait.
	Dequeue(ctx context.Context, params DequeueParams) (*Delivery, error)

	// Ack permanently removes an in-flight message. receiptHandle must be the
	// handle issued by the message's current lease.
	Ack(ctx context.Context, id, receiptHandle string) error

	// Reconcile moves every in-flight message whose lease has expired back to
	// pending and returns how many were moved.
	Reconcile(ctx context.Context) int

	// Inspect reports where a live message currently is.
	Inspect(ctx context.Context, id string) (MessageInfo, error)

	// Stats returns a snapshot of the queue counters.
	Stats(ctx context.Context) Stats

	// Purge drops every pending message and returns how many were dropped.
	// In-flight leases are left alone.
	Purge(ctx context.Context) (int, error)

	// Close rejects further operations and wakes every waiting Dequeue.
	Close() error
}

// New creates a new queue instance.
func New(opts ...Option) (Queue, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	err := validateOptions(o)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &queue{
		opts:     o,
		clock:    o.clock,
		pending:  fifo.New(),
		messages: make(map[string]*Message),
		notify:   make(chan struct{}),
		metrics:  newQueueMetrics(o.registry),
		logger:   o.logger,
	}, nil
}

// queue is the concrete implementation of the Queue interface.
type queue struct {
	opts  queueOptions
	clock clock.Clock

	// mu guards every field below it.
	mu       sync.Mutex
	pending  *fifo.Queue         // of *Message, FIFO
	leases   leaseHeap           // in-flight messages ordered by lease expiry
	messages map[string]*Message // every live message, pending or in-flight
	seq      uint64
	closed   bool

	// notify is closed and replaced whenever pending gains messages.
	notify chan struct{}

	metrics *queueMetrics
	logger  logger.Logger
}

// wakeLocked releases every Dequeue currently waiting for work.
func (q *queue) wakeLocked() {
	close(q.notify)
	q.notify = make(chan struct{})
}

// updateGaugesLocked refreshes the size gauges after a mutation.
func (q *queue) updateGaugesLocked() {
	q.metrics.pending.Update(int64(q.pending.Length()))
	q.metrics.inFlight.Update(int64(q.leases.Len()))
}

func (q *queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	q.wakeLocked()
	q.logger.Info("[memqueue]: queue closed")
	return nil
}
