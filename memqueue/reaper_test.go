package memqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/memqueue"
)

func TestNewReaper_Validation(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := memqueue.NewReaper(nil, time.Second)
	require.Error(t, err)

	_, err = memqueue.NewReaper(q, 0)
	require.Error(t, err)
}

func TestReaper_ReturnsExpiredLeases(t *testing.T) {
	q, clk := newTestQueue(t)

	id := enqueue(t, q, "job", time.Second)
	require.NotNil(t, dequeue(t, q))
	clk.Advance(time.Second)

	r, err := memqueue.NewReaper(q, 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Start(t.Context()) }()

	require.Eventually(t, func() bool {
		info, inspectErr := q.Inspect(t.Context(), id)
		return inspectErr == nil && info.State == memqueue.StatePending
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Stop())
	require.NoError(t, <-done)
	assert.NoError(t, r.Stop())
}

func TestReaper_StopsOnContextCancel(t *testing.T) {
	q, _ := newTestQueue(t)

	r, err := memqueue.NewReaper(q, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop on context cancel")
	}
}
