package broker

import (
	"github.com/rcrowley/go-metrics"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/pulseq/observability/alert"
	"github.com/rise-and-shine/pulseq/observability/logger"
	"github.com/rise-and-shine/pulseq/observability/tracing"
)

// Option is a function that configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger   logger.Logger
	registry metrics.Registry
	tracer   trace.Tracer
	alerter  func() alert.Provider
}

// WithLogger sets the logger used by the server and its connections.
// Default: the global logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithMetricsRegistry sets the registry the broker reports its metrics to.
// Default: metrics.DefaultRegistry.
func WithMetricsRegistry(r metrics.Registry) Option {
	return func(o *serverOptions) {
		o.registry = r
	}
}

// WithTracer sets the tracer used for per-request spans.
// Default: the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *serverOptions) {
		o.tracer = t
	}
}

// WithAlertProvider sets where recovered panics are reported.
// Default: the global alert provider.
func WithAlertProvider(p alert.Provider) Option {
	return func(o *serverOptions) {
		o.alerter = func() alert.Provider { return p }
	}
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		registry: metrics.DefaultRegistry,
		tracer:   tracing.Tracer("github.com/rise-and-shine/pulseq/broker"),
		alerter:  alert.Global,
	}
}
