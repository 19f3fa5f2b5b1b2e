package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/pulseq/meta"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/observability/tracing"
	"github.com/rise-and-shine/pulseq/protocol"
)

const (
	codePanicRecovered = "PANIC_RECOVERED"
	alertSendTimeout   = 3 * time.Second
	transportTCP       = "tcp"
	lingerTimeout      = 500 * time.Millisecond
)

// conn serves requests from one client, strictly one at a time.
type conn struct {
	id     string
	srv    *Server
	raw    net.Conn
	reader *protocol.Reader
	writer *protocol.Writer
	logger logger.Logger
}

func newConn(s *Server, raw net.Conn) *conn {
	id := uuid.NewString()
	return &conn{
		id:     id,
		srv:    s,
		raw:    raw,
		reader: protocol.NewReader(raw, s.cfg.MaxFrameSize),
		writer: protocol.NewWriter(raw),
		logger: s.opts.logger.Named("conn"),
	}
}

// serve runs the read, dispatch, write loop until the client goes away, a
// frame cannot be read, or the server shuts down. Mutations committed by the
// queue survive the connection closing mid-request.
func (c *conn) serve(ctx context.Context) {
	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.ConnID:     c.id,
		meta.RemoteAddr: c.raw.RemoteAddr().String(),
		meta.Transport:  transportTCP,
	})
	log := c.logger.WithContext(ctx)

	defer func() {
		_ = c.raw.Close()
		log.Debug("[broker]: connection closed")
	}()
	log.Debug("[broker]: connection opened")

	for {
		if !c.srv.armRead(c) {
			return
		}

		frame, err := c.reader.ReadFrame()
		if err != nil {
			c.handleReadError(ctx, err)
			return
		}

		resp := c.handle(ctx, frame)

		if err = c.writer.WriteResponse(resp); err != nil {
			log.With("error", err.Error()).Debug("[broker]: write failed")
			return
		}
	}
}

func (c *conn) handleReadError(ctx context.Context, err error) {
	log := c.logger.WithContext(ctx)

	switch {
	case protocol.IsFrameTooLarge(err):
		c.srv.metrics.protocolErrors.Inc(1)
		log.Warnx(err)
		// The rest of the stream cannot be framed; answer once and hang up.
		_ = c.writer.WriteResponse(protocol.ErrorResponse(err))
		c.closeWriteAndDrain()
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case isTimeout(err):
		if !c.srv.isClosing() {
			log.Debug("[broker]: idle timeout")
		}
	default:
		log.With("error", err.Error()).Debug("[broker]: read failed")
	}
}

// handle turns one frame into one response. It never returns an error: every
// failure, including a panic, becomes an error response.
func (c *conn) handle(ctx context.Context, frame []byte) (resp protocol.Response) {
	start := time.Now()
	c.srv.metrics.requests.Inc(1)
	defer func() { c.srv.metrics.requestDuration.UpdateSince(start) }()

	req, err := protocol.Decode(frame)
	if err != nil {
		c.srv.metrics.protocolErrors.Inc(1)
		c.logger.WithContext(ctx).With("error", err.Error()).Warn("[broker]: protocol error")
		resp = protocol.ErrorResponse(err)
		// Set when the frame was valid JSON but failed validation.
		resp.RequestID = req.RequestID
		return resp
	}

	ctx, span := c.srv.opts.tracer.Start(ctx, "pulseq."+string(req.Op),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("pulseq.conn_id", c.id),
			attribute.String("pulseq.op", string(req.Op)),
		),
	)
	defer span.End()

	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.TraceID:   tracing.GetStartingTraceID(ctx),
		meta.Operation: string(req.Op),
		meta.RequestID: req.RequestID,
	})

	defer func() {
		if r := recover(); r != nil {
			err := c.recovered(ctx, r)
			span.SetStatus(codes.Error, "panic")
			resp = protocol.ErrorResponse(err)
			resp.RequestID = req.RequestID
		}
	}()

	if req.Op == protocol.OpDequeue && req.WaitDuration() > 0 {
		var stopWatch func()
		ctx, stopWatch = c.watchPeer(ctx)
		defer stopWatch()
	}

	resp, err = dispatch(ctx, c.srv.queue, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, protocol.WireCode(err))
		c.logOpError(ctx, err)
		resp = protocol.ErrorResponse(err)
	}
	resp.RequestID = req.RequestID

	return resp
}

// watchPeer derives a context that is cancelled when the peer closes its side
// of the connection, so a long poll does not lease a message to a dead socket.
// The returned stop func must run before the next frame is read.
func (c *conn) watchPeer(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		// Data means a pipelined request, a deadline means stop or idle timeout.
		err := c.reader.Peek()
		if err == nil || isTimeout(err) {
			return
		}
		c.logger.WithContext(ctx).With("error", err.Error()).Debug("[broker]: peer gone during long poll")
		cancel()
	}()

	return ctx, func() {
		_ = c.raw.SetReadDeadline(time.Now())
		<-done
		cancel()
	}
}

func (c *conn) logOpError(ctx context.Context, err error) {
	log := c.logger.WithContext(ctx)
	if errx.GetType(err) == errx.T_Internal {
		log.Errorx(err)
		return
	}
	log.With("error", err.Error()).Debug("[broker]: request rejected")
}

// recovered logs and reports a panic raised while serving a request.
func (c *conn) recovered(ctx context.Context, r any) error {
	stackTrace := make([]byte, 4096)
	stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]
	panicValue := fmt.Sprintf("%v", r)

	c.logger.WithContext(ctx).
		With("stack_trace", string(stackTrace), "panic_value", panicValue).
		Error("[broker]: panic recovered")

	err := errx.New("[broker]: panic recovered", errx.WithCode(codePanicRecovered), errx.WithDetails(errx.D{
		"panic_value": panicValue,
	}))

	details := map[string]string{
		"panic_value": panicValue,
		"stack_trace": string(stackTrace),
	}
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
	go func() {
		defer cancel()

		sendErr := c.srv.opts.alerter().SendError(alertCtx, codePanicRecovered, panicValue, meta.Find(ctx, meta.Operation), details)
		if sendErr != nil {
			c.logger.With("alert_send_error", sendErr.Error()).Warn("[broker]: failed to send alert")
		}
	}()

	return err
}

// closeWriteAndDrain half-closes the connection and discards what the client
// is still sending, so the error response is not lost to a TCP reset.
func (c *conn) closeWriteAndDrain() {
	tcp, ok := c.raw.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tcp.CloseWrite()
	_ = tcp.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, tcp)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
