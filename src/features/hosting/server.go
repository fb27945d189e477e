// Package hosting is the thin HTTP control plane over the pipeline/import
// runners, the event bus, and the catalog queries.
package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/configapi"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/embedding"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/features/importing"
	"github.com/orinfm/pipeline/src/features/metrics"
	"github.com/orinfm/pipeline/src/features/pipeline"
	"github.com/orinfm/pipeline/src/features/search"
	"github.com/orinfm/pipeline/src/features/stats"
	"github.com/orinfm/pipeline/src/infra/ledger"
	"github.com/orinfm/pipeline/src/infra/vectorindex"
)

// Server is the JSON HTTP server fronting the pipeline and import runners.
type Server struct {
	app  *fiber.App
	port uint32
}

// Deps collects every collaborator the HTTP surface delegates to.
type Deps struct {
	Config      *config.Manager
	Curated     *curated.Store
	Ledger      *ledger.Ledger
	Bus         *eventbus.Bus
	PipelineRun *pipeline.Runner
	ImportRun   *importing.Runner
	Embedder    *embedding.Embedder
	VectorIndex *vectorindex.Gateway
}

// NewServer wires every route group onto a fresh Fiber app.
func NewServer(d Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "snippet-index",
		DisableStartupMessage: true,
		EnablePrintRoutes:     d.Config.Get().Server.PrintRoutes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("internal server error", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(CORSMiddleware())
	app.Use(LogAllRequestsMiddleware())

	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	configapi.RegisterRoutes(app, d.Config)
	stats.RegisterRoutes(app, d.Curated, d.Ledger, d.VectorIndex)
	importing.RegisterRoutes(app, d.ImportRun, d.Curated, d.Ledger)
	pipeline.RegisterRoutes(app, d.PipelineRun)
	search.RegisterRoutes(app, d.Embedder, d.VectorIndex)
	RegisterEventsRoute(app, d.Bus)
	metrics.RegisterRoutes(app)

	return &Server{app: app, port: d.Config.Get().Server.Port}
}

// Start blocks serving HTTP until the listener errors or is shut down.
func (s *Server) Start() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
