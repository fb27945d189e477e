package importing

import (
	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/infra/ledger"
)

// RegisterRoutes mounts playlist-import, playlist-listing, and
// curated-track-listing endpoints.
func RegisterRoutes(app *fiber.App, runner *Runner, store *curated.Store, ldg *ledger.Ledger) {
	handler := NewHandler(runner, store, ldg)

	v1 := app.Group("/api/v1")
	v1.Get("/playlists", handler.ListPlaylists)
	v1.Post("/playlists/import", handler.StartImport)
	v1.Get("/import/status", handler.ImportStatus)
	v1.Post("/import/stop", handler.StopImport)
	v1.Get("/tracks", handler.ListTracks)
	v1.Get("/tracks/skipped", handler.ListSkippedTracks)
}
