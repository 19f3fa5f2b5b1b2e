package tracing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/pulseq/observability/tracing"
)

func TestInitGlobalTracer_Disabled(t *testing.T) {
	shutdown, err := tracing.InitGlobalTracer(tracing.Config{Disable: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
}

func TestGetStartingTraceID_Manual(t *testing.T) {
	id := tracing.GetStartingTraceID(context.Background())
	assert.True(t, strings.HasPrefix(id, "man-"))
	assert.NotEqual(t, id, tracing.GetStartingTraceID(context.Background()))
}

func TestGetStartingTraceID_FromSpan(t *testing.T) {
	tp := trace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(t.Context(), "op")
	defer span.End()

	want := oteltrace.SpanFromContext(ctx).SpanContext().TraceID().String()
	assert.Equal(t, want, tracing.GetStartingTraceID(ctx))
}
