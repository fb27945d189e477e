package hosting

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CORSMiddleware allows any origin to call the JSON API; the frontend is a
// separate app during development.
func CORSMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

// LogAllRequestsMiddleware logs every request's method, path, status, and
// duration, escalating to Error once the response is a failure.
func LogAllRequestsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		status := c.Response().StatusCode()

		if status >= 400 {
			slog.Error("HTTP request",
				"method", c.Method(), "path", c.Path(), "status", status, "duration", duration.String(), "error", err)
		} else {
			slog.Debug("HTTP request",
				"method", c.Method(), "path", c.Path(), "status", status, "duration", duration.String())
		}
		return err
	}
}
