package fiber

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay/core"
)

// Authenticate verifies the session cookie and binds the user id into the
// request context for downstream handlers. It never touches the store.
//
// Only usable after RegisterRoutes, which supplies the guard.
func (a *Adapter) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, err := a.h.Guard.Authenticate(c.Context(), a.cookies.Extract(c))
		if err != nil {
			return a.handleError(c, err)
		}
		c.SetContext(ctx)
		return c.Next()
	}
}

// RequireRole must run after Authenticate. The caller's role is loaded
// fresh on every request, so a role change applies to the next request.
func (a *Adapter) RequireRole(roles ...core.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, err := a.h.Guard.Authorize(c.Context(), roles...)
		if err != nil {
			return a.handleError(c, err)
		}
		c.SetContext(ctx)
		return c.Next()
	}
}

// observe records one request. The route label is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func (a *Adapter) observe(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	a.metrics.RecordRequest(c.Method(), c.Route().Path, status, time.Since(start))
	return err
}
