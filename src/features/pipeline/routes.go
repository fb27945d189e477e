package pipeline

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the pipeline control endpoints.
func RegisterRoutes(app *fiber.App, runner *Runner) {
	handler := NewHandler(runner)

	group := app.Group("/api/v1/pipeline")
	group.Post("/start", handler.Start)
	group.Post("/stop", handler.Stop)
	group.Get("/status", handler.Status)
}
