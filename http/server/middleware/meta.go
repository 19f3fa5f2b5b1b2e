// Package middleware provides HTTP server middleware components.
package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/pulseq/http/server"
	"github.com/rise-and-shine/pulseq/meta"
	"github.com/rise-and-shine/pulseq/observability/tracing"
)

const (
	transportHTTP   = "http"
	headerRequestID = "X-Request-ID"
	headerTraceID   = "X-Trace-ID"
)

// NewMetaInjectMW creates a middleware that injects metadata into the request context.
//
// This middleware collects information from the request such as trace ID, IP address,
// user agent and request id, and injects them into the request context using
// the meta package. The trace id is echoed in the X-Trace-ID response header.
func NewMetaInjectMW() server.Middleware {
	return server.Middleware{
		Priority: 700,
		Handler: func(c *fiber.Ctx) error {
			traceID := tracing.GetStartingTraceID(c.UserContext())

			metaData := map[meta.ContextKey]string{
				meta.TraceID:    traceID,
				meta.RequestID:  c.Get(headerRequestID),
				meta.Transport:  transportHTTP,
				meta.Operation:  c.Method() + " " + c.Path(),
				meta.IPAddress:  c.IP(),
				meta.UserAgent:  c.Get(fiber.HeaderUserAgent),
				meta.RemoteAddr: c.Context().RemoteAddr().String(),
			}

			c.SetUserContext(meta.InjectMetaToContext(c.UserContext(), metaData))
			c.Set(headerTraceID, traceID)

			return c.Next()
		},
	}
}
