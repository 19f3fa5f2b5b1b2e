package memqueue

import (
	"bytes"
	"context"

	"github.com/code19m/errx"
	"github.com/google/uuid"

	"github.com/rise-and-shine/pulseq/val"
)

// Enqueue appends a message to the tail of the pending list.
func (q *queue) Enqueue(ctx context.Context, params EnqueueParams) (string, error) {
	err := q.validateEnqueueParams(params)
	if err != nil {
		return "", errx.Wrap(err)
	}

	timeout := q.opts.defaultVisibilityTimeout
	if params.VisibilityTimeout != nil {
		timeout = *params.VisibilityTimeout
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", errClosed()
	}

	q.seq++
	msg := &Message{
		ID:                uuid.NewString(),
		Body:              bytes.Clone(params.Body),
		EnqueuedAt:        q.clock.Now(),
		VisibilityTimeout: timeout,
		state:             StatePending,
		seq:               q.seq,
		heapIndex:         -1,
	}

	q.messages[msg.ID] = msg
	q.pending.Add(msg)
	q.metrics.enqueued.Inc(1)
	q.updateGaugesLocked()
	q.wakeLocked()

	q.logger.WithContext(ctx).
		With("message_id", msg.ID, "body_size", len(msg.Body)).
		Debug("[memqueue]: message enqueued")

	return msg.ID, nil
}

func (q *queue) validateEnqueueParams(params EnqueueParams) error {
	if len(params.Body) == 0 {
		return errInvalidArgument("body is required", errx.D{})
	}

	if params.VisibilityTimeout == nil {
		return nil
	}

	timeout := *params.VisibilityTimeout
	details := errx.D{
		"visibility_timeout": timeout.String(),
		"max":                q.opts.maxVisibilityTimeout.String(),
	}

	switch {
	case timeout < 0:
		return errInvalidArgument("visibility timeout must not be negative", details)
	case timeout > q.opts.maxVisibilityTimeout:
		return errInvalidArgument("visibility timeout exceeds the maximum", details)
	case !val.IsWholeSeconds(timeout):
		return errInvalidArgument("visibility timeout must be a whole number of seconds", details)
	}

	return nil
}
