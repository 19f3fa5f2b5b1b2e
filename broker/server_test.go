package broker_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/broker"
	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/protocol"
)

type fixture struct {
	srv      *broker.Server
	queue    memqueue.Queue
	registry metrics.Registry
	addr     string
}

func nopLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)
	return l
}

func startBroker(t *testing.T, cfg broker.Config, q memqueue.Queue, opts ...broker.Option) *fixture {
	t.Helper()

	registry := metrics.NewRegistry()
	if q == nil {
		var err error
		q, err = memqueue.New(memqueue.WithLogger(nopLogger(t)), memqueue.WithMetricsRegistry(registry))
		require.NoError(t, err)
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}

	base := []broker.Option{broker.WithLogger(nopLogger(t)), broker.WithMetricsRegistry(registry)}
	srv, err := broker.NewServer(cfg, q, append(base, opts...)...)
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

	return &fixture{srv: srv, queue: q, registry: registry, addr: ln.Addr().String()}
}

type panickyQueue struct {
	memqueue.Queue
}

func (panickyQueue) Enqueue(context.Context, memqueue.EnqueueParams) (string, error) {
	panic("boom")
}

type recordingAlerter struct {
	mu    sync.Mutex
	codes []string
	ops   []string
}

func (r *recordingAlerter) SendError(_ context.Context, errCode, _, operation string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, errCode)
	r.ops = append(r.ops, operation)
	return nil
}

func (r *recordingAlerter) sent() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...), append([]string(nil), r.ops...)
}

type rawClient struct {
	conn net.Conn
	r    *protocol.Reader
	w    *protocol.Writer
}

func dial(t *testing.T, addr string) *rawClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &rawClient{conn: conn, r: protocol.NewReader(conn, 0), w: protocol.NewWriter(conn)}
}

func (c *rawClient) send(t *testing.T, frame string) protocol.Response {
	t.Helper()

	require.NoError(t, c.w.WriteFrame([]byte(frame)))
	return c.read(t)
}

func (c *rawClient) do(t *testing.T, req protocol.Request) protocol.Response {
	t.Helper()

	require.NoError(t, c.w.WriteRequest(req))
	return c.read(t)
}

func (c *rawClient) read(t *testing.T) protocol.Response {
	t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame, err := c.r.ReadFrame()
	require.NoError(t, err)
	resp, err := protocol.DecodeResponse(frame)
	require.NoError(t, err)
	return resp
}

func TestBroker_EnqueueDequeueAck(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	c := dial(t, f.addr)

	resp := c.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("hello"), RequestID: "r-1"})
	require.True(t, resp.OK, resp.Error)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "r-1", resp.RequestID)
	id := resp.ID

	resp = c.do(t, protocol.Request{Op: protocol.OpDequeue})
	require.True(t, resp.OK)
	assert.False(t, resp.Empty)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, 1, resp.Deliveries)
	require.NotNil(t, resp.LeaseExpires)
	handle := resp.ReceiptHandle

	resp = c.do(t, protocol.Request{Op: protocol.OpDequeue})
	require.True(t, resp.OK)
	assert.True(t, resp.Empty)

	resp = c.do(t, protocol.Request{Op: protocol.OpAck, ID: id, ReceiptHandle: handle})
	assert.True(t, resp.OK)

	resp = c.do(t, protocol.Request{Op: protocol.OpAck, ID: id, ReceiptHandle: handle})
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeNotFound, resp.Error.Code)
}

func TestBroker_ErrorsKeepConnectionOpen(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	c := dial(t, f.addr)

	tests := []struct {
		frame string
		code  string
	}{
		{"not json at all", protocol.CodeProtocolError},
		{`{"op":"peek"}`, protocol.CodeProtocolError},
		{`{"op":"ack","id":"x"}`, protocol.CodeProtocolError},
		{`{"op":"enqueue"}`, protocol.CodeInvalidArgument},
		{`{"op":"enqueue","body":"aGk=","visibility_timeout":-1}`, protocol.CodeInvalidArgument},
		{`{"op":"dequeue","wait_seconds":-3}`, protocol.CodeInvalidArgument},
		{`{"op":"ack","id":"missing","receipt_handle":"h"}`, protocol.CodeNotFound},
	}

	for _, tc := range tests {
		resp := c.send(t, tc.frame)
		assert.False(t, resp.OK, tc.frame)
		require.NotNil(t, resp.Error, tc.frame)
		assert.Equal(t, tc.code, resp.Error.Code, tc.frame)
	}

	resp := c.send(t, `{"op":"dequeue"}`)
	assert.True(t, resp.OK)
	assert.True(t, resp.Empty)

	protocolErrors, ok := f.registry.Get(broker.MetricProtocolErrors).(metrics.Counter)
	require.True(t, ok)
	assert.Equal(t, int64(3), protocolErrors.Count())
}

func TestBroker_HandleMismatchAfterRedelivery(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	c := dial(t, f.addr)

	resp := c.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("x"), VisibilityTimeout: lo.ToPtr(int64(0))})
	require.True(t, resp.OK)

	first := c.do(t, protocol.Request{Op: protocol.OpDequeue})
	require.True(t, first.OK)
	second := c.do(t, protocol.Request{Op: protocol.OpDequeue})
	require.True(t, second.OK)
	require.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Deliveries)

	resp = c.do(t, protocol.Request{Op: protocol.OpAck, ID: first.ID, ReceiptHandle: first.ReceiptHandle})
	require.NotNil(t, resp.Error)
	assert.Contains(t, []string{protocol.CodeHandleMismatch, protocol.CodeNotFound}, resp.Error.Code)
}

func TestBroker_FrameTooLargeClosesConnection(t *testing.T) {
	f := startBroker(t, broker.Config{MaxFrameSize: 64}, nil)
	c := dial(t, f.addr)

	_, err := c.conn.Write([]byte(`{"op":"enqueue","body":"` + strings.Repeat("A", 200) + "\"}\n"))
	require.NoError(t, err)

	resp := c.read(t)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeProtocolError, resp.Error.Code)

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = c.r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBroker_ConcurrentConnections(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)

	const n = 20
	producer := dial(t, f.addr)
	for i := range n {
		resp := producer.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: fmt.Appendf(nil, "m-%d", i)})
		require.True(t, resp.OK)
	}

	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for range n {
		wg.Go(func() {
			conn, err := net.DialTimeout("tcp", f.addr, time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()

			w, r := protocol.NewWriter(conn), protocol.NewReader(conn, 0)
			if !assert.NoError(t, w.WriteRequest(protocol.Request{Op: protocol.OpDequeue})) {
				return
			}
			frame, err := r.ReadFrame()
			if !assert.NoError(t, err) {
				return
			}
			resp, err := protocol.DecodeResponse(frame)
			if !assert.NoError(t, err) || !assert.False(t, resp.Empty) {
				return
			}
			assert.NoError(t, w.WriteRequest(protocol.Request{Op: protocol.OpAck, ID: resp.ID, ReceiptHandle: resp.ReceiptHandle}))
			frame, err = r.ReadFrame()
			if !assert.NoError(t, err) {
				return
			}
			ack, err := protocol.DecodeResponse(frame)
			assert.NoError(t, err)
			assert.True(t, ack.OK)

			mu.Lock()
			defer mu.Unlock()
			assert.False(t, ids[resp.ID], "message delivered twice")
			ids[resp.ID] = true
		})
	}
	wg.Wait()

	assert.Len(t, ids, n)
	stats := f.queue.Stats(t.Context())
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.InFlight)
}

func TestBroker_LongPoll(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	consumer := dial(t, f.addr)
	producer := dial(t, f.addr)

	require.NoError(t, consumer.w.WriteRequest(protocol.Request{Op: protocol.OpDequeue, WaitSeconds: lo.ToPtr(int64(5))}))
	time.Sleep(50 * time.Millisecond)

	resp := producer.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("wake")})
	require.True(t, resp.OK)

	got := consumer.read(t)
	require.True(t, got.OK)
	assert.Equal(t, resp.ID, got.ID)
}

func TestBroker_LongPollAbandonedByPeer(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)

	gone := dial(t, f.addr)
	require.NoError(t, gone.w.WriteRequest(protocol.Request{Op: protocol.OpDequeue, WaitSeconds: lo.ToPtr(int64(5))}))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, gone.conn.Close())

	gauge, ok := f.registry.Get(broker.MetricConnections).(metrics.Gauge)
	require.True(t, ok)
	assert.Eventually(t, func() bool { return gauge.Value() == 0 }, 2*time.Second, 10*time.Millisecond)

	c := dial(t, f.addr)
	resp := c.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("kept")})
	require.True(t, resp.OK)

	got := c.do(t, protocol.Request{Op: protocol.OpDequeue})
	require.True(t, got.OK)
	assert.False(t, got.Empty)
	assert.Equal(t, resp.ID, got.ID)
	assert.Equal(t, 1, got.Deliveries)
}

func TestBroker_LongPollWithPipelinedRequest(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	consumer := dial(t, f.addr)
	producer := dial(t, f.addr)

	require.NoError(t, consumer.w.WriteRequest(protocol.Request{Op: protocol.OpDequeue, WaitSeconds: lo.ToPtr(int64(5)), RequestID: "poll"}))
	require.NoError(t, consumer.w.WriteRequest(protocol.Request{Op: protocol.OpDequeue, RequestID: "next"}))
	time.Sleep(50 * time.Millisecond)

	resp := producer.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("wake")})
	require.True(t, resp.OK)

	got := consumer.read(t)
	assert.Equal(t, "poll", got.RequestID)
	assert.Equal(t, resp.ID, got.ID)

	next := consumer.read(t)
	assert.Equal(t, "next", next.RequestID)
	assert.True(t, next.Empty)
}

func TestBroker_WhitespaceLinesSkipped(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	c := dial(t, f.addr)

	_, err := c.conn.Write([]byte("   \n\t\r\n{\"op\":\"dequeue\",\"request_id\":\"r1\"}\n"))
	require.NoError(t, err)

	resp := c.read(t)
	assert.True(t, resp.OK)
	assert.Equal(t, "r1", resp.RequestID)
	assert.True(t, resp.Empty)
}

func TestBroker_StopEndsLongPollAndClosesIdle(t *testing.T) {
	q, err := memqueue.New(memqueue.WithLogger(nopLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	srv, err := broker.NewServer(broker.Config{ShutdownTimeout: 2 * time.Second}, q, broker.WithLogger(nopLogger(t)),
		broker.WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	idle := dial(t, ln.Addr().String())
	polling := dial(t, ln.Addr().String())
	require.NoError(t, polling.w.WriteRequest(protocol.Request{Op: protocol.OpDequeue, WaitSeconds: lo.ToPtr(int64(20))}))
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- srv.Stop() }()

	resp := polling.read(t)
	assert.True(t, resp.OK)
	assert.True(t, resp.Empty)

	select {
	case err = <-stopped:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return")
	}
	require.NoError(t, <-served)

	_ = idle.conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = idle.r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)

	_, err = net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestBroker_IdleTimeout(t *testing.T) {
	f := startBroker(t, broker.Config{IdleTimeout: 100 * time.Millisecond}, nil)
	c := dial(t, f.addr)

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := c.r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBroker_PanicRecovered(t *testing.T) {
	inner, err := memqueue.New(memqueue.WithLogger(nopLogger(t)))
	require.NoError(t, err)

	alerter := &recordingAlerter{}
	f := startBroker(t, broker.Config{}, panickyQueue{Queue: inner}, broker.WithAlertProvider(alerter))
	c := dial(t, f.addr)

	resp := c.do(t, protocol.Request{Op: protocol.OpEnqueue, Body: []byte("x"), RequestID: "p-1"})
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInternal, resp.Error.Code)
	assert.Equal(t, "internal error", resp.Error.Message)
	assert.Equal(t, "p-1", resp.RequestID)

	// The connection survives the panic.
	resp = c.do(t, protocol.Request{Op: protocol.OpDequeue})
	assert.True(t, resp.OK)
	assert.True(t, resp.Empty)

	assert.Eventually(t, func() bool {
		codes, _ := alerter.sent()
		return len(codes) == 1
	}, 2*time.Second, 10*time.Millisecond)
	codes, ops := alerter.sent()
	assert.Equal(t, []string{"PANIC_RECOVERED"}, codes)
	assert.Equal(t, []string{"enqueue"}, ops)
}

func TestNewServer_RequiresQueue(t *testing.T) {
	_, err := broker.NewServer(broker.Config{}, nil)
	assert.Error(t, err)
}

func TestConfig_Address(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", broker.Config{Host: "127.0.0.1", Port: 8080}.Address())
	assert.Equal(t, "[::1]:7000", broker.Config{Host: "::1", Port: 7000}.Address())
}

func TestBroker_ConnectionsGauge(t *testing.T) {
	f := startBroker(t, broker.Config{}, nil)
	c := dial(t, f.addr)
	c.send(t, `{"op":"dequeue"}`)

	gauge, ok := f.registry.Get(broker.MetricConnections).(metrics.Gauge)
	require.True(t, ok)
	assert.Equal(t, int64(1), gauge.Value())

	_ = c.conn.Close()
	assert.Eventually(t, func() bool { return gauge.Value() == 0 }, 2*time.Second, 10*time.Millisecond)
}

