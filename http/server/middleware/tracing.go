// Package middleware provides HTTP server middleware components.
package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.23.1"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/pulseq/http/server"
	"github.com/rise-and-shine/pulseq/observability/tracing"
)

// NewTracingMW creates a middleware that provides OpenTelemetry tracing for HTTP requests.
//
// This middleware starts a new span for each incoming request, propagates it through the
// request context, and adds relevant HTTP attributes to the span. It sets the span name
// based on the HTTP method and route path, and records errors if they occur during
// request processing.
func NewTracingMW() server.Middleware {
	tracer := tracing.Tracer("github.com/rise-and-shine/pulseq/http")

	return server.Middleware{
		Priority: 900,
		Handler: func(c *fiber.Ctx) error {
			ctx, span := tracer.Start(c.UserContext(), c.Method()+" /", trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			c.SetUserContext(ctx)

			err := c.Next()

			routePattern := c.Route().Path
			if routePattern != "" && routePattern != "/" {
				span.SetName(fmt.Sprintf("%s %s", c.Method(), routePattern))
			}

			span.SetAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.HTTPRouteKey.String(routePattern),
				semconv.URLPathKey.String(c.Path()),
				semconv.HTTPResponseStatusCodeKey.Int(c.Response().StatusCode()),
			)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}

			return err
		},
	}
}
