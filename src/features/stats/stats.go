// Package stats composes a single summary endpoint out of the curated
// store, the ledger, and the vector index.
package stats

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/infra/ledger"
	"github.com/orinfm/pipeline/src/infra/vectorindex"
)

// Handler serves the /api/v1/stats endpoint.
type Handler struct {
	curated *curated.Store
	ledger  *ledger.Ledger
	index   *vectorindex.Gateway
}

// NewHandler builds a Handler from its collaborators.
func NewHandler(store *curated.Store, ldg *ledger.Ledger, index *vectorindex.Gateway) *Handler {
	return &Handler{curated: store, ledger: ldg, index: index}
}

// RegisterRoutes mounts the stats endpoint.
func RegisterRoutes(app *fiber.App, store *curated.Store, ldg *ledger.Ledger, index *vectorindex.Gateway) {
	handler := NewHandler(store, ldg, index)
	app.Get("/api/v1/stats", handler.Get)
}

// Get handles GET /api/v1/stats.
func (h *Handler) Get(c *fiber.Ctx) error {
	curatedTotal, err := h.curated.GetCuratedTrackCount("")
	if err != nil {
		slog.Error("failed to count curated tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	byGenre, err := h.curated.CountByGenre()
	if err != nil {
		slog.Error("failed to count tracks by genre", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	processedTotal, err := h.ledger.GetProcessedCount("", "")
	if err != nil {
		slog.Error("failed to count processed tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	processedLRCLib, _ := h.ledger.GetProcessedCount("lrclib", "")
	processedCurated, _ := h.ledger.GetProcessedCount("curated", "")
	succeeded, _ := h.ledger.GetProcessedCount("", ledger.StatusSuccess)
	failed, _ := h.ledger.GetProcessedCount("", ledger.StatusFailed)

	indexInfo, err := h.index.CollectionInfo(c.Context())
	if err != nil {
		slog.Warn("failed to fetch vector index info", "error", err)
	}

	skippedTotal, err := h.curated.CountSkipped()
	if err != nil {
		slog.Error("failed to count skipped tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"curated_total":    curatedTotal,
		"curated_by_genre": byGenre,
		"processed_total":  processedTotal,
		"processed_by_source": fiber.Map{
			"lrclib":  processedLRCLib,
			"curated": processedCurated,
		},
		"processed_by_status": fiber.Map{
			"success": succeeded,
			"failed":  failed,
		},
		"indexed_total": indexInfo.PointsCount,
		"index":         indexInfo,
		"skipped_total": skippedTotal,
	})
}
