package client_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/broker"
	"github.com/rise-and-shine/pulseq/client"
	"github.com/rise-and-shine/pulseq/clock"
	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

func nopLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)
	return l
}

func startBroker(t *testing.T, opts ...memqueue.Option) string {
	t.Helper()

	q, err := memqueue.New(append([]memqueue.Option{memqueue.WithLogger(nopLogger(t))}, opts...)...)
	require.NoError(t, err)

	srv, err := broker.NewServer(broker.Config{ShutdownTimeout: 2 * time.Second}, q,
		broker.WithLogger(nopLogger(t)), broker.WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
		require.NoError(t, <-served)
		_ = q.Close()
	})

	return ln.Addr().String()
}

func dial(t *testing.T, addr string) *client.Client {
	t.Helper()

	c, err := client.Dial(t.Context(), addr, client.WithLogger(nopLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_RoundTrip(t *testing.T) {
	c := dial(t, startBroker(t))
	ctx := t.Context()

	id, err := c.Enqueue(ctx, []byte("payload"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msg, err := c.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, []byte("payload"), msg.Body)
	assert.Equal(t, 1, msg.Deliveries)
	assert.False(t, msg.LeaseExpiresAt.IsZero())

	empty, err := c.Dequeue(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, empty)

	require.NoError(t, c.Ack(ctx, msg.ID, msg.ReceiptHandle))

	err = c.Ack(ctx, msg.ID, msg.ReceiptHandle)
	require.ErrorIs(t, err, client.ErrNotFound)

	var serverErr *client.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "NOT_FOUND", serverErr.Code)
}

func TestClient_ErrorMapping(t *testing.T) {
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := dial(t, startBroker(t, memqueue.WithClock(mc)))
	ctx := t.Context()

	_, err := c.Enqueue(ctx, nil)
	assert.ErrorIs(t, err, client.ErrInvalidArgument)

	_, err = c.Enqueue(ctx, []byte("x"), client.WithVisibilityTimeout(24*time.Hour))
	assert.ErrorIs(t, err, client.ErrInvalidArgument)

	err = c.Ack(ctx, "", "")
	assert.ErrorIs(t, err, client.ErrProtocol)

	_, err = c.Enqueue(ctx, []byte("x"), client.WithVisibilityTimeout(10*time.Second))
	require.NoError(t, err)

	first, err := c.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, first)

	mc.Advance(11 * time.Second)

	second, err := c.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Deliveries)

	err = c.Ack(ctx, first.ID, first.ReceiptHandle)
	assert.ErrorIs(t, err, client.ErrHandleMismatch)
	assert.NotErrorIs(t, err, client.ErrNotFound)

	require.NoError(t, c.Ack(ctx, second.ID, second.ReceiptHandle))
}

func TestClient_LongPoll(t *testing.T) {
	addr := startBroker(t)
	consumer := dial(t, addr)
	producer := dial(t, addr)

	type result struct {
		msg *client.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := consumer.Dequeue(context.Background(), 5*time.Second)
		done <- result{msg, err}
	}()

	time.Sleep(50 * time.Millisecond)
	id, err := producer.Enqueue(t.Context(), []byte("late"))
	require.NoError(t, err)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.NotNil(t, r.msg)
		assert.Equal(t, id, r.msg.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("long poll was not woken")
	}
}

func TestClient_ContextCancelClosesClient(t *testing.T) {
	c := dial(t, startBroker(t))

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Dequeue(ctx, 10*time.Second)
	require.Error(t, err)

	_, err = c.Enqueue(t.Context(), []byte("x"))
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestClient_Close(t *testing.T) {
	c := dial(t, startBroker(t))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Dequeue(t.Context(), 0)
	assert.ErrorIs(t, err, client.ErrClosed)
}

func TestDial_RetriesUntilBrokerIsUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	go func() {
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	c, err := client.Dial(t.Context(), addr,
		client.WithLogger(nopLogger(t)),
		client.WithDialAttempts(20),
		client.WithDialBackoff(25*time.Millisecond, 50*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestDial_GivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = client.Dial(t.Context(), addr,
		client.WithLogger(nopLogger(t)),
		client.WithDialAttempts(2),
		client.WithDialBackoff(time.Millisecond, time.Millisecond),
	)
	assert.Error(t, err)
}

func TestServerError_Is(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"INVALID_ARGUMENT", client.ErrInvalidArgument},
		{"NOT_FOUND", client.ErrNotFound},
		{"HANDLE_MISMATCH", client.ErrHandleMismatch},
		{"PROTOCOL_ERROR", client.ErrProtocol},
		{"INTERNAL", client.ErrInternal},
		{"SOMETHING_NEW", client.ErrInternal},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			err := error(&client.ServerError{Code: tc.code, Message: "m"})
			assert.True(t, errors.Is(err, tc.want))
			assert.Contains(t, err.Error(), tc.code)
		})
	}
}
