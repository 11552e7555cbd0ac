package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(FromCtx(c)) })

	t.Run("Generates id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		assert.NoError(t, err)
		id := resp.Header.Get(HeaderName)
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr)
	})

	t.Run("Preserves incoming id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderName, "upstream-id")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, "upstream-id", resp.Header.Get(HeaderName))
	})
}
