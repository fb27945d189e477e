// Package search exposes semantic snippet search and raw text embedding
// over HTTP.
package search

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/orinfm/pipeline/src/features/embedding"
	"github.com/orinfm/pipeline/src/infra/vectorindex"
)

const defaultSearchLimit = 10

// Handler serves the /api/v1/search and /api/v1/embed endpoints.
type Handler struct {
	embedder *embedding.Embedder
	index    *vectorindex.Gateway
}

// NewHandler builds a Handler from its collaborators.
func NewHandler(embedder *embedding.Embedder, index *vectorindex.Gateway) *Handler {
	return &Handler{embedder: embedder, index: index}
}

// RegisterRoutes mounts the search endpoints.
func RegisterRoutes(app *fiber.App, embedder *embedding.Embedder, index *vectorindex.Gateway) {
	handler := NewHandler(embedder, index)
	app.Post("/api/v1/search", handler.Search)
	app.Post("/api/v1/embed", handler.Embed)
}

type searchRequest struct {
	Query   string `json:"query" validate:"required"`
	Limit   int    `json:"limit"`
	Genre   string `json:"genre"`
	Emotion string `json:"emotion"`
	Energy  string `json:"energy"`
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	embedResult := h.embedder.EmbedText(c.Context(), req.Query)
	if !embedResult.Success {
		slog.Error("failed to embed search query", "error", embedResult.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to embed query"})
	}

	results, err := h.index.Search(c.Context(), embedResult.Vector, req.Limit, vectorindex.SearchFilters{
		Energy: req.Energy, Emotion: req.Emotion, Genre: req.Genre,
	})
	if err != nil {
		slog.Error("search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed"})
	}

	return c.JSON(fiber.Map{"query": req.Query, "results": results, "total": len(results)})
}

type embedRequest struct {
	Text string `json:"text"`
}

// Embed handles POST /api/v1/embed.
func (h *Handler) Embed(c *fiber.Ctx) error {
	var req embedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	result := h.embedder.EmbedText(c.Context(), req.Text)
	if !result.Success {
		slog.Error("failed to embed text", "error", result.Err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to embed text"})
	}

	return c.JSON(fiber.Map{"embedding": result.Vector})
}
