package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	calls []string
}

func (r *recordingProvider) SendError(_ context.Context, errCode, _, operation string, _ map[string]string) error {
	r.calls = append(r.calls, operation+":"+errCode)
	return nil
}

func TestCooldownProvider(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &recordingProvider{}
	cp := newCooldownProvider(rec, time.Minute, func() time.Time { return now })

	require.NoError(t, cp.SendError(t.Context(), "PANIC", "boom", "dequeue", nil))
	require.NoError(t, cp.SendError(t.Context(), "PANIC", "boom", "dequeue", nil))
	require.NoError(t, cp.SendError(t.Context(), "PANIC", "boom", "ack", nil))

	now = now.Add(time.Minute)
	require.NoError(t, cp.SendError(t.Context(), "PANIC", "boom", "dequeue", nil))

	assert.Equal(t, []string{"dequeue:PANIC", "ack:PANIC", "dequeue:PANIC"}, rec.calls)
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Disable: true}, "pulseq", "test")
	require.NoError(t, err)
	assert.IsType(t, &noOpProvider{}, p)
	assert.NoError(t, p.SendError(t.Context(), "X", "y", "z", nil))
}

func TestSendError_GlobalDefaultIsNoop(t *testing.T) {
	assert.NoError(t, SendError(t.Context(), "X", "y", "z", map[string]string{"k": "v"}))
}
