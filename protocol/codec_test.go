package protocol_test

import (
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/protocol"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  protocol.Request
	}{
		{
			name:  "enqueue",
			frame: `{"op":"enqueue","body":"aGVsbG8=","visibility_timeout":30}`,
			want: protocol.Request{
				Op:                protocol.OpEnqueue,
				Body:              []byte("hello"),
				VisibilityTimeout: lo.ToPtr(int64(30)),
			},
		},
		{
			name:  "enqueue without body still decodes",
			frame: `{"op":"enqueue"}`,
			want:  protocol.Request{Op: protocol.OpEnqueue},
		},
		{
			name:  "dequeue with wait and request id",
			frame: "{\"op\":\"dequeue\",\"wait_seconds\":5,\"request_id\":\"r-1\"}\r\n",
			want:  protocol.Request{Op: protocol.OpDequeue, WaitSeconds: lo.ToPtr(int64(5)), RequestID: "r-1"},
		},
		{
			name:  "ack",
			frame: `{"op":"ack","id":"m1","receipt_handle":"h1"}`,
			want:  protocol.Request{Op: protocol.OpAck, ID: "m1", ReceiptHandle: "h1"},
		},
		{
			name:  "unknown fields are ignored",
			frame: `{"op":"dequeue","queue":"default"}`,
			want:  protocol.Request{Op: protocol.OpDequeue},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := protocol.Decode([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"empty", "   "},
		{"not json", "enqueue hello"},
		{"truncated", `{"op":"enqueue"`},
		{"missing op", `{"body":"aGk="}`},
		{"unknown op", `{"op":"peek"}`},
		{"ack without handle", `{"op":"ack","id":"m1"}`},
		{"ack without id", `{"op":"ack","receipt_handle":"h1"}`},
		{"body not base64", `{"op":"enqueue","body":"***"}`},
		{"timeout not a number", `{"op":"enqueue","body":"aGk=","visibility_timeout":"soon"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := protocol.Decode([]byte(tc.frame))
			require.Error(t, err)
			assert.True(t, protocol.IsProtocolError(err))
			assert.Equal(t, protocol.CodeProtocolError, protocol.WireCode(err))
		})
	}
}

func TestRequestDurations(t *testing.T) {
	req := protocol.Request{VisibilityTimeout: lo.ToPtr(int64(45)), WaitSeconds: lo.ToPtr(int64(3))}
	require.NotNil(t, req.VisibilityTimeoutDuration())
	assert.Equal(t, 45*time.Second, *req.VisibilityTimeoutDuration())
	assert.Equal(t, 3*time.Second, req.WaitDuration())

	empty := protocol.Request{}
	assert.Nil(t, empty.VisibilityTimeoutDuration())
	assert.Zero(t, empty.WaitDuration())
}

func TestEncode(t *testing.T) {
	frame, err := protocol.Encode(protocol.Response{
		OK:            true,
		ID:            "m1",
		Body:          []byte("hello"),
		ReceiptHandle: "h1",
		RequestID:     "r-1",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"id":"m1","body":"aGVsbG8=","receipt_handle":"h1","request_id":"r-1"}`, string(frame))
	assert.NotContains(t, string(frame), "\n")

	frame, err = protocol.Encode(protocol.Response{OK: true, Empty: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"empty":true}`, string(frame))
}

func TestResponseRoundTrip(t *testing.T) {
	in := protocol.Response{OK: false, Error: &protocol.Error{Code: protocol.CodeNotFound, Message: "gone"}}

	frame, err := protocol.Encode(in)
	require.NoError(t, err)

	out, err := protocol.DecodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		hidden   bool
	}{
		{"invalid argument", errx.New("bad", errx.WithCode(memqueue.CodeInvalidArgument)), protocol.CodeInvalidArgument, false},
		{"not found", errx.New("gone", errx.WithCode(memqueue.CodeNotFound)), protocol.CodeNotFound, false},
		{"handle mismatch", errx.New("stale", errx.WithCode(memqueue.CodeHandleMismatch)), protocol.CodeHandleMismatch, false},
		{"wrapped not found", errx.Wrap(errx.New("gone", errx.WithCode(memqueue.CodeNotFound))), protocol.CodeNotFound, false},
		{"queue closed", errx.New("closed", errx.WithCode(memqueue.CodeQueueClosed)), protocol.CodeInternal, true},
		{"unknown", errx.New("db exploded"), protocol.CodeInternal, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := protocol.ErrorResponse(tc.err)
			assert.False(t, resp.OK)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			if tc.hidden {
				assert.Equal(t, "internal error", resp.Error.Message)
			} else {
				assert.NotEmpty(t, resp.Error.Message)
			}
		})
	}
}

func TestRequestDurations_Saturate(t *testing.T) {
	req := protocol.Request{VisibilityTimeout: lo.ToPtr(int64(1) << 62)}
	require.NotNil(t, req.VisibilityTimeoutDuration())
	assert.Greater(t, *req.VisibilityTimeoutDuration(), 100*365*24*time.Hour)
}
