package importing

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/infra/ledger"
)

// Handler exposes the Runner, the curated store, and the ledger over HTTP.
type Handler struct {
	runner  *Runner
	curated *curated.Store
	ledger  *ledger.Ledger
}

// NewHandler builds a Handler around a Runner and its backing stores.
func NewHandler(runner *Runner, store *curated.Store, ldg *ledger.Ledger) *Handler {
	return &Handler{runner: runner, curated: store, ledger: ldg}
}

type importRequest struct {
	URL    string `json:"url" validate:"required"`
	Genre  string `json:"genre" validate:"required"`
	DryRun bool   `json:"dry_run"`
}

// StartImport handles POST /api/v1/playlists/import.
func (h *Handler) StartImport(c *fiber.Ctx) error {
	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.URL == "" || req.Genre == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url and genre are required"})
	}

	taskID, err := h.runner.Start(req.URL, req.Genre, req.DryRun)
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("failed to start import", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"task_id": taskID, "message": "import started"})
}

// StopImport handles POST /api/v1/import/stop.
func (h *Handler) StopImport(c *fiber.Ctx) error {
	stopped := h.runner.Stop()
	return c.JSON(fiber.Map{"stopped": stopped, "message": "stop requested"})
}

// ImportStatus handles GET /api/v1/import/status.
func (h *Handler) ImportStatus(c *fiber.Ctx) error {
	return c.JSON(h.runner.GetStatus())
}

// ListPlaylists handles GET /api/v1/playlists.
func (h *Handler) ListPlaylists(c *fiber.Ctx) error {
	playlists, err := h.curated.ListPlaylists()
	if err != nil {
		slog.Error("failed to list playlists", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"playlists": playlists, "total": len(playlists)})
}

// ListTracks handles GET /api/v1/tracks.
func (h *Handler) ListTracks(c *fiber.Ctx) error {
	genre := c.Query("genre")
	status := c.Query("status")
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 500"})
		}
		limit = n
	}

	if status == "pending" || status == "processed" {
		return h.listTracksByStatus(c, genre, status, limit, offset)
	}

	tracks, err := h.curated.GetCuratedTracks(genre, &limit, offset, nil)
	if err != nil {
		slog.Error("failed to list tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	total, err := h.curated.GetCuratedTrackCount(genre)
	if err != nil {
		slog.Error("failed to count tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"tracks": tracks, "total": total, "offset": offset, "limit": limit})
}

// listTracksByStatus pages through tracks filtered by ledger status. The
// status filter lives in the ledger database, not the curated store, so
// SQL-level LIMIT/OFFSET cannot produce correctly filled pages; instead the
// candidate list is fetched unbounded, filtered, and paged in application
// code.
func (h *Handler) listTracksByStatus(c *fiber.Ctx, genre, status string, limit, offset int) error {
	ids, err := h.ledger.GetSettledIDs("curated")
	if err != nil {
		slog.Error("failed to load processed ids", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	all, err := h.curated.GetCuratedTracks(genre, nil, 0, nil)
	if err != nil {
		slog.Error("failed to list tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	wantProcessed := status == "processed"
	filtered := make([]curated.Track, 0, len(all))
	for _, t := range all {
		if ids[t.ID] == wantProcessed {
			filtered = append(filtered, t)
		}
	}

	total := len(filtered)
	if offset > total {
		offset = total
	}
	page := filtered[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	return c.JSON(fiber.Map{"tracks": page, "total": total, "offset": offset, "limit": limit})
}

// ListSkippedTracks handles GET /api/v1/tracks/skipped.
func (h *Handler) ListSkippedTracks(c *fiber.Ctx) error {
	var playlistID *int64
	if v := c.Query("playlist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist_id"})
		}
		playlistID = &id
	}

	skipped, err := h.curated.ListSkipped(playlistID)
	if err != nil {
		slog.Error("failed to list skipped tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"tracks": skipped, "total": len(skipped)})
}
