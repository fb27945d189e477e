// Package configapi exposes the running configuration for introspection,
// with secrets redacted before they ever leave the process.
package configapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/config"
)

// RegisterRoutes mounts the config introspection endpoint.
func RegisterRoutes(app *fiber.App, cfg *config.Manager) {
	app.Get("/api/v1/config", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cfg.GetJSON())
	})
}
