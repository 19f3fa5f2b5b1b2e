// Package protocol defines the wire format spoken between pulseq clients and
// the broker.
//
// Every frame is a single JSON object terminated by '\n'. A client sends one
// Request and reads exactly one Response before sending the next; message
// bodies travel as base64 strings.
package protocol

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// Op names a queue operation.
type Op string

const (
	OpEnqueue Op = "enqueue"
	OpDequeue Op = "dequeue"
	OpAck     Op = "ack"
)

// Wire error codes.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeHandleMismatch  = "HANDLE_MISMATCH"
	CodeProtocolError   = "PROTOCOL_ERROR"
	CodeInternal        = "INTERNAL"
)

// DefaultMaxFrameSize bounds a single frame: a 1 MiB body grows by a third
// when base64 encoded, plus room for the other fields.
const DefaultMaxFrameSize = 1<<20*4/3 + 4<<10

// Request is a single client request.
type Request struct {
	Op Op `json:"op" validate:"required,oneof=enqueue dequeue ack"`

	// Body is the message payload for enqueue.
	Body []byte `json:"body,omitempty"`

	// VisibilityTimeout is the lease length in seconds for enqueue. Nil
	// selects the broker default.
	VisibilityTimeout *int64 `json:"visibility_timeout,omitempty"`

	// WaitSeconds lets dequeue long-poll for up to this many seconds.
	WaitSeconds *int64 `json:"wait_seconds,omitempty"`

	// ID and ReceiptHandle identify the lease to ack.
	ID            string `json:"id,omitempty"             validate:"required_if=Op ack"`
	ReceiptHandle string `json:"receipt_handle,omitempty" validate:"required_if=Op ack"`

	// RequestID is echoed back unchanged in the response.
	RequestID string `json:"request_id,omitempty" validate:"max=128"`
}

// VisibilityTimeoutDuration returns the requested visibility timeout, or nil.
func (r Request) VisibilityTimeoutDuration() *time.Duration {
	if r.VisibilityTimeout == nil {
		return nil
	}
	return lo.ToPtr(seconds(*r.VisibilityTimeout))
}

// WaitDuration returns the requested long-poll wait.
func (r Request) WaitDuration() time.Duration {
	if r.WaitSeconds == nil {
		return 0
	}
	return seconds(*r.WaitSeconds)
}

// seconds converts n to a duration, saturating instead of overflowing.
func seconds(n int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Second)
	switch {
	case n > limit:
		return math.MaxInt64
	case n < -limit:
		return math.MinInt64
	default:
		return time.Duration(n) * time.Second
	}
}

// Response answers a single Request.
type Response struct {
	OK bool `json:"ok"`

	ID            string     `json:"id,omitempty"`
	Body          []byte     `json:"body,omitempty"`
	ReceiptHandle string     `json:"receipt_handle,omitempty"`
	Deliveries    int        `json:"deliveries,omitempty"`
	LeaseExpires  *time.Time `json:"lease_expires_at,omitempty"`

	// Empty is set on a successful dequeue that found nothing to deliver.
	Empty bool `json:"empty,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	Error     *Error `json:"error,omitempty"`
}

// Error is the failure payload of a Response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
