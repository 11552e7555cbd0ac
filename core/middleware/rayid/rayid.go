package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// HeaderName is the response header echoing the request id.
	HeaderName = "X-Ray-ID"
	// LocalsKey is where the id is stored in the request context.
	LocalsKey = "ray_id"
)

// New returns a middleware assigning every request a RayID.
// An incoming X-Ray-ID header is preserved.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}

// FromCtx returns the RayID of the request, or an empty string.
func FromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(LocalsKey).(string); ok {
		return id
	}
	return ""
}
