package usecase_test

import (
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/pulseq/clock"
	"github.com/rise-and-shine/pulseq/memqueue"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/usecase"
	"github.com/rise-and-shine/pulseq/val"
)

func newSet(t *testing.T) (usecase.Set, *clock.Manual) {
	t.Helper()

	l, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	mc := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	q, err := memqueue.New(memqueue.WithLogger(l), memqueue.WithClock(mc))
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	return usecase.NewSet(q), mc
}

func TestOperationIDs(t *testing.T) {
	set, _ := newSet(t)

	assert.Equal(t, usecase.OpEnqueueMessage, set.Enqueue.OperationID())
	assert.Equal(t, usecase.OpDequeueMessage, set.Dequeue.OperationID())
	assert.Equal(t, usecase.OpAckMessage, set.Ack.OperationID())
	assert.Equal(t, usecase.OpGetStats, set.Stats.OperationID())
	assert.Equal(t, usecase.OpInspectMessage, set.Inspect.OperationID())
	assert.Equal(t, usecase.OpPurgeQueue, set.Purge.OperationID())
}

func TestLifecycle(t *testing.T) {
	set, mc := newSet(t)
	ctx := t.Context()

	enq, err := set.Enqueue.Execute(ctx, &usecase.EnqueueInput{Body: []byte("job"), VisibilityTimeout: lo.ToPtr(int64(5))})
	require.NoError(t, err)
	require.NotEmpty(t, enq.ID)

	out, err := set.Dequeue.Execute(ctx, &usecase.DequeueInput{})
	require.NoError(t, err)
	assert.False(t, out.Empty)
	assert.Equal(t, enq.ID, out.ID)
	assert.Equal(t, []byte("job"), out.Body)
	require.NotNil(t, out.LeaseExpiresAt)
	assert.Equal(t, mc.Now().Add(5*time.Second), *out.LeaseExpiresAt)

	stats, err := set.Stats.Execute(ctx, &usecase.StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.InFlight)

	ack, err := set.Ack.Execute(ctx, &usecase.AckInput{ID: out.ID, ReceiptHandle: out.ReceiptHandle})
	require.NoError(t, err)
	assert.True(t, ack.OK)

	_, err = set.Ack.Execute(ctx, &usecase.AckInput{ID: out.ID, ReceiptHandle: out.ReceiptHandle})
	assert.True(t, memqueue.IsNotFound(err))
}

func TestDequeue_Empty(t *testing.T) {
	set, _ := newSet(t)

	out, err := set.Dequeue.Execute(t.Context(), &usecase.DequeueInput{})
	require.NoError(t, err)
	assert.True(t, out.Empty)
	assert.Empty(t, out.ID)
}

func TestEnqueue_EngineRejects(t *testing.T) {
	set, _ := newSet(t)

	_, err := set.Enqueue.Execute(t.Context(), &usecase.EnqueueInput{
		Body:              []byte("x"),
		VisibilityTimeout: lo.ToPtr(int64(13 * 3600)),
	})
	assert.True(t, memqueue.IsInvalidArgument(err))

	_, err = set.Enqueue.Execute(t.Context(), &usecase.EnqueueInput{
		Body:              []byte("x"),
		VisibilityTimeout: lo.ToPtr(int64(1 << 62)),
	})
	assert.True(t, memqueue.IsInvalidArgument(err))
}

func TestInspectAndPurge(t *testing.T) {
	set, mc := newSet(t)
	ctx := t.Context()

	leased, err := set.Enqueue.Execute(ctx, &usecase.EnqueueInput{Body: []byte("a"), VisibilityTimeout: lo.ToPtr(int64(10))})
	require.NoError(t, err)
	waiting, err := set.Enqueue.Execute(ctx, &usecase.EnqueueInput{Body: []byte("b")})
	require.NoError(t, err)

	_, err = set.Dequeue.Execute(ctx, &usecase.DequeueInput{})
	require.NoError(t, err)

	info, err := set.Inspect.Execute(ctx, &usecase.InspectInput{ID: leased.ID})
	require.NoError(t, err)
	assert.Equal(t, string(memqueue.StateInFlight), info.State)
	assert.Equal(t, 1, info.Deliveries)
	require.NotNil(t, info.LeaseExpiresAt)
	assert.Equal(t, mc.Now().Add(10*time.Second), *info.LeaseExpiresAt)

	info, err = set.Inspect.Execute(ctx, &usecase.InspectInput{ID: waiting.ID})
	require.NoError(t, err)
	assert.Equal(t, string(memqueue.StatePending), info.State)
	assert.Nil(t, info.LeaseExpiresAt)

	purged, err := set.Purge.Execute(ctx, &usecase.PurgeInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, purged.Purged)

	_, err = set.Inspect.Execute(ctx, &usecase.InspectInput{ID: waiting.ID})
	assert.True(t, memqueue.IsNotFound(err))

	_, err = set.Inspect.Execute(ctx, &usecase.InspectInput{ID: leased.ID})
	assert.NoError(t, err)
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name  string
		input any
		field string
	}{
		{"enqueue without body", &usecase.EnqueueInput{}, "body"},
		{"enqueue negative timeout", &usecase.EnqueueInput{Body: []byte("x"), VisibilityTimeout: lo.ToPtr(int64(-1))}, "visibility_timeout"},
		{"dequeue negative wait", &usecase.DequeueInput{WaitSeconds: lo.ToPtr(int64(-1))}, "wait_seconds"},
		{"ack without id", &usecase.AckInput{ReceiptHandle: "h"}, "id"},
		{"ack blank handle", &usecase.AckInput{ID: "a", ReceiptHandle: "   "}, "receipt_handle"},
		{"inspect without id", &usecase.InspectInput{}, "id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := val.ValidateSchema(tc.input)
			require.Error(t, err)
			assert.Contains(t, errx.AsErrorX(err).Fields(), tc.field)
		})
	}

	assert.NoError(t, val.ValidateSchema(&usecase.DequeueInput{}))
	assert.NoError(t, val.ValidateSchema(&usecase.StatsInput{}))
}
