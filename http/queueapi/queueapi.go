// Package queueapi registers the REST routes of the queue.
package queueapi

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rcrowley/go-metrics"

	"github.com/rise-and-shine/pulseq/http/server/forward"
	"github.com/rise-and-shine/pulseq/usecase"
)

// Register returns a function that mounts the queue routes on a router.
// registry is served as JSON at /metrics.
func Register(set usecase.Set, registry metrics.Registry) func(r fiber.Router) {
	return func(r fiber.Router) {
		v1 := r.Group("/v1")
		v1.Post("/messages", forward.ToUserAction(set.Enqueue))
		v1.Post("/messages/dequeue", forward.ToUserAction(set.Dequeue))
		v1.Post("/messages/ack", forward.ToUserAction(set.Ack))
		v1.Get("/messages/inspect", forward.ToUserAction(set.Inspect))
		v1.Post("/messages/purge", forward.ToUserAction(set.Purge))
		v1.Get("/stats", forward.ToUserAction(set.Stats))

		r.Get("/metrics", metricsHandler(registry))
		r.Get("/healthz", healthHandler)
	}
}

func metricsHandler(registry metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("json")
		metrics.WriteJSONOnce(registry, c.Response().BodyWriter())
		return nil
	}
}

func healthHandler(c *fiber.Ctx) error {
	return errx.Wrap(c.JSON(fiber.Map{"status": "ok"}))
}
