// Package embedding turns snippet descriptions into fixed-size vectors for
// semantic search.
//
// The original system loaded a local BGE-M3 model; here embedding is
// realized as a synchronous call to an OpenAI-compatible embeddings
// endpoint, truncated/normalized to the configured dimension. Unload is
// kept only so callers that mirror the load/unload lifecycle still compile
// against an interface that once needed it.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/orinfm/pipeline/src/features/config"
)

// Embedder produces unit-normalized embedding vectors.
type Embedder struct {
	cfg    *config.Manager
	client *openai.Client
}

// New builds an Embedder against the application configuration.
func New(cfg *config.Manager) *Embedder {
	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIEmbedKey()))
	return &Embedder{cfg: cfg, client: &client}
}

// Result is the outcome of embedding one piece of text.
type Result struct {
	Success bool
	Vector  []float32
	Err     error
}

// EmbedText embeds a single string.
func (e *Embedder) EmbedText(ctx context.Context, text string) Result {
	results := e.EmbedTexts(ctx, []string{text})
	return results[0]
}

// EmbedTexts embeds a batch of strings, truncating and re-normalizing each
// vector to the configured dimension.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModelTextEmbedding3Large,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		for i := range results {
			results[i] = Result{Err: fmt.Errorf("embedding request: %w", err)}
		}
		return results
	}

	dim := e.cfg.Get().Embedding.Dimension
	for i, data := range resp.Data {
		vec := truncateAndNormalize(data.Embedding, dim)
		results[i] = Result{Success: true, Vector: vec}
	}
	return results
}

// Unload is a no-op kept for interface parity with the original model
// lifecycle; there is no in-process model to release.
func (e *Embedder) Unload() {}

func truncateAndNormalize(embedding []float64, dim int) []float32 {
	if dim <= 0 || dim > len(embedding) {
		dim = len(embedding)
	}

	vec := make([]float32, dim)
	var sumSquares float64
	for i := 0; i < dim; i++ {
		sumSquares += embedding[i] * embedding[i]
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		norm = 1
	}
	for i := 0; i < dim; i++ {
		vec[i] = float32(embedding[i] / norm)
	}
	return vec
}
