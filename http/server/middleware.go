package server

import (
	"cmp"
	"slices"

	"github.com/gofiber/fiber/v2"
)

// Middleware is a Fiber handler with a place in the stack. A higher Priority
// is registered first, so it wraps every middleware below it.
type Middleware struct {
	Priority int
	Handler  fiber.Handler
}

// applyMiddlewares registers middlewares on app by descending priority.
// Equal priorities keep their given order and nil handlers are skipped.
func applyMiddlewares(app fiber.Router, middlewares []Middleware) {
	sorted := slices.Clone(middlewares)
	slices.SortStableFunc(sorted, func(a, b Middleware) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	for _, mw := range sorted {
		if mw.Handler != nil {
			app.Use(mw.Handler)
		}
	}
}
