// Package middleware provides HTTP server middleware components.
package middleware

import (
	"runtime"
	"time"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/pulseq/http/server"
	"github.com/rise-and-shine/pulseq/observability/logger"
)

const codePanicRecovered = "PANIC_RECOVERED"

// NewLoggerMW creates a middleware that logs HTTP requests and responses.
//
// This middleware captures information about each request including method,
// path, status code and duration. The logging level is determined by the
// HTTP status code (info for 2xx/3xx, warn for 4xx, error for 5xx).
func NewLoggerMW(base logger.Logger) server.Middleware {
	base = base.Named("http.middleware.logger")

	return server.Middleware{
		Priority: 500,
		Handler: func(c *fiber.Ctx) error {
			start := time.Now()

			err := handleWithRecovery(c)

			statusCode := c.Response().StatusCode()

			log := base.
				WithContext(c.UserContext()).
				With(
					"http_status_code", statusCode,
					"http_method", c.Method(),
					"http_path", c.Path(),
					"http_route", c.Route().Path,
					"duration", time.Since(start),
					"request_size", len(c.Body()),
				)

			if err != nil {
				log = log.With("error", errx.AsErrorX(err).Error())
			}

			switch {
			case statusCode >= 500:
				if err != nil {
					log.Errorx(err)
				} else {
					log.Error("request failed")
				}
			case statusCode >= 400:
				log.Warn("request rejected")
			default:
				log.Info("request processed successfully")
			}

			return err
		},
	}
}

// handleWithRecovery executes the next middleware and recovers from panics.
// It returns any error from the middleware chain or a new error if a panic occurred.
func handleWithRecovery(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			traceSize := 4096 // 4KB
			stackTrace := make([]byte, traceSize)
			stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

			err = errx.New(
				"panic recovered at logger middleware",
				errx.WithCode(codePanicRecovered),
				errx.WithDetails(errx.D{
					"stack_trace":   string(stackTrace),
					"panic_message": r,
				}),
			)
		}
	}()

	return c.Next()
}
