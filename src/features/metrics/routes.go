package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the Prometheus exposition endpoint.
func RegisterRoutes(app *fiber.App) {
	handler := adaptor.HTTPHandler(promhttp.Handler())
	app.Get("/metrics", handler)
}
