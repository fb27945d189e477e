package pipeline

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the Runner over HTTP.
type Handler struct {
	runner *Runner
}

// NewHandler builds a Handler around a Runner.
func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

type startRequest struct {
	Source    string `json:"source"`
	Genre     string `json:"genre"`
	Limit     *int   `json:"limit"`
	DryRun    bool   `json:"dry_run"`
	Reprocess bool   `json:"reprocess"`
}

// Start handles POST /api/v1/pipeline/start.
func (h *Handler) Start(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Source == "" {
		req.Source = "curated"
	}

	taskID, total, err := h.runner.Start(c.Context(), Options{
		Source: req.Source, Genre: req.Genre, Limit: req.Limit, DryRun: req.DryRun, Reprocess: req.Reprocess,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("failed to start pipeline", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"task_id": taskID, "total_tracks": total, "message": "pipeline started"})
}

// Stop handles POST /api/v1/pipeline/stop.
func (h *Handler) Stop(c *fiber.Ctx) error {
	stopped := h.runner.Stop()
	return c.JSON(fiber.Map{"stopped": stopped, "message": "stop requested"})
}

// Status handles GET /api/v1/pipeline/status.
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(h.runner.GetStatus())
}
