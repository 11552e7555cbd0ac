package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/guide/status", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/swagger/index.html", func(c *fiber.Ctx) error { return c.SendString("docs") })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		path   string
		header string
		want   int
	}{
		{"Disabled", Config{}, "/guide/status", "", fiber.StatusOK},
		{"Missing key", Config{ApiKey: "secret"}, "/guide/status", "", fiber.StatusUnauthorized},
		{"Wrong key", Config{ApiKey: "secret"}, "/guide/status", "nope", fiber.StatusUnauthorized},
		{"Valid key", Config{ApiKey: "secret"}, "/guide/status", "secret", fiber.StatusOK},
		{"Query key", Config{ApiKey: "secret"}, "/guide/status?api_key=secret", "", fiber.StatusOK},
		{"Skipped prefix", Config{ApiKey: "secret", Skip: []string{"/swagger"}}, "/swagger/index.html", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			resp, err := newApp(tt.cfg).Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
