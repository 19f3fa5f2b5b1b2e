// Package client is a Go client for the pulseq TCP protocol.
package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/protocol"
)

// Message is a leased message returned by Dequeue.
type Message struct {
	ID             string
	Body           []byte
	ReceiptHandle  string
	Deliveries     int
	LeaseExpiresAt time.Time
}

// Client holds one broker connection. It is safe for concurrent use; requests
// are sent one at a time, so a long-polling Dequeue holds up the others.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *protocol.Reader
	writer *protocol.Writer
	closed bool
}

// Dial connects to the broker at addr, retrying with exponential backoff
// until the attempts run out or ctx is done.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("client")
	}

	log := o.logger.WithContext(ctx).With("addr", addr)
	dialer := net.Dialer{Timeout: o.dialTimeout}

	conn, err := retry.DoWithData(
		func() (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
		retry.Attempts(max(o.dialAttempts, 1)),
		retry.Delay(o.dialDelay),
		retry.MaxDelay(o.dialMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1, "max_attempts", o.dialAttempts, "error", err.Error()).
				Warn("[client]: dial failed, retrying")
		}),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &Client{
		conn:   conn,
		reader: protocol.NewReader(conn, o.maxFrameSize),
		writer: protocol.NewWriter(conn),
	}, nil
}

// Enqueue sends body to the queue and returns the message id.
func (c *Client) Enqueue(ctx context.Context, body []byte, opts ...EnqueueOption) (string, error) {
	var eo enqueueOptions
	for _, opt := range opts {
		opt(&eo)
	}

	resp, err := c.roundTrip(ctx, protocol.Request{
		Op:                protocol.OpEnqueue,
		Body:              body,
		VisibilityTimeout: eo.visibilityTimeout,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Dequeue leases the next message. With a positive wait the broker holds the
// request until a message arrives or wait elapses. A nil Message means the
// queue had nothing to deliver.
func (c *Client) Dequeue(ctx context.Context, wait time.Duration) (*Message, error) {
	req := protocol.Request{Op: protocol.OpDequeue}
	if wait > 0 {
		req.WaitSeconds = lo.ToPtr(int64((wait + time.Second - 1) / time.Second))
	}

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Empty {
		return nil, nil
	}

	msg := &Message{
		ID:            resp.ID,
		Body:          resp.Body,
		ReceiptHandle: resp.ReceiptHandle,
		Deliveries:    resp.Deliveries,
	}
	if resp.LeaseExpires != nil {
		msg.LeaseExpiresAt = *resp.LeaseExpires
	}
	return msg, nil
}

// Ack removes a leased message. receiptHandle must come from the message's
// latest delivery.
func (c *Client) Ack(ctx context.Context, id, receiptHandle string) error {
	_, err := c.roundTrip(ctx, protocol.Request{
		Op:            protocol.OpAck,
		ID:            id,
		ReceiptHandle: receiptHandle,
	})
	return err
}

// Close closes the connection. Further calls return ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return errx.Wrap(c.conn.Close())
}

// roundTrip sends req and reads its response. A transport failure leaves the
// stream in an unknown state, so the connection is closed.
func (c *Client) roundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return protocol.Response{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return protocol.Response{}, errx.Wrap(err)
	}

	req.RequestID = uuid.NewString()

	deadline, _ := ctx.Deadline()
	_ = c.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	resp, err := c.exchange(req)
	if err != nil {
		c.closed = true
		_ = c.conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return protocol.Response{}, errx.Wrap(errors.Join(ctxErr, err))
		}
		return protocol.Response{}, err
	}

	if resp.Error != nil {
		return resp, &ServerError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	return resp, nil
}

func (c *Client) exchange(req protocol.Request) (protocol.Response, error) {
	if err := c.writer.WriteRequest(req); err != nil {
		return protocol.Response{}, errx.Wrap(err)
	}

	frame, err := c.reader.ReadFrame()
	if err != nil {
		return protocol.Response{}, errx.Wrap(err)
	}

	resp, err := protocol.DecodeResponse(frame)
	if err != nil {
		return protocol.Response{}, errx.Wrap(err)
	}

	// A response without our request id belongs to someone else; the broker
	// only omits it when the request itself could not be decoded.
	if resp.RequestID != "" && resp.RequestID != req.RequestID {
		return protocol.Response{}, &ServerError{
			Code:    protocol.CodeProtocolError,
			Message: "response request id does not match",
		}
	}
	return resp, nil
}
