// Package vectorindex is a gateway onto the Qdrant collection that stores
// embedded snippet descriptions for semantic search.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// maxGrpcMessageSize accommodates batch upserts of full snippet payloads
// plus their 768-dim vectors.
const maxGrpcMessageSize = 32 * 1024 * 1024

// SnippetPayload is everything stored alongside a snippet's embedding.
type SnippetPayload struct {
	SnippetID        string
	SongTitle        string
	Artist           string
	Album            string
	Lyrics           string
	AIDescription    string
	SnippetURL       string
	StartTime        float64
	EndTime          float64
	PrimaryEmotion   string
	SecondaryEmotion string
	Energy           string
	Tone             string
	Genre            string
	TrackID          int64
}

func (p SnippetPayload) toMap() map[string]any {
	m := map[string]any{
		"song_title":      p.SongTitle,
		"artist":          p.Artist,
		"lyrics":          p.Lyrics,
		"ai_description":  p.AIDescription,
		"snippet_url":     p.SnippetURL,
		"start_time":      p.StartTime,
		"end_time":        p.EndTime,
		"primary_emotion": p.PrimaryEmotion,
		"energy":          p.Energy,
		"tone":            p.Tone,
		"genre":           p.Genre,
		"track_id":        p.TrackID,
	}
	if p.Album != "" {
		m["album"] = p.Album
	}
	if p.SecondaryEmotion != "" {
		m["secondary_emotion"] = p.SecondaryEmotion
	}
	return m
}

// SearchResult is one ranked snippet returned from a semantic search.
type SearchResult struct {
	SnippetID string
	Score     float32
	Payload   map[string]any
}

// GenerateSnippetID returns a new random snippet identifier.
func GenerateSnippetID() string {
	return uuid.NewString()
}

// Gateway wraps a Qdrant collection used to index and search snippets.
type Gateway struct {
	client         *qdrant.Client
	collectionName string
	dimension      uint64
}

// Config selects cloud vs. local Qdrant connection parameters.
type Config struct {
	URL            string // cloud mode when set, along with APIKey
	APIKey         string
	Host           string // local mode
	Port           int
	CollectionName string
	Dimension      int
}

// New connects to Qdrant, preferring cloud URL+API-key over the local
// host:port pair when both are configured.
func New(cfg Config) (*Gateway, error) {
	qcfg := &qdrant.Config{
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxGrpcMessageSize), grpc.MaxCallSendMsgSize(maxGrpcMessageSize)),
		},
	}

	if cfg.URL != "" && cfg.APIKey != "" {
		qcfg.Host = cfg.URL
		qcfg.APIKey = cfg.APIKey
		qcfg.UseTLS = true
	} else {
		qcfg.Host = cfg.Host
		qcfg.Port = cfg.Port
	}

	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Gateway{client: client, collectionName: cfg.CollectionName, dimension: uint64(cfg.Dimension)}, nil
}

// EnsureCollection creates the configured collection if it does not exist.
func (g *Gateway) EnsureCollection(ctx context.Context) error {
	exists, err := g.client.CollectionExists(ctx, g.collectionName)
	if err != nil {
		return fmt.Errorf("checking collection existence: %w", err)
	}
	if exists {
		return nil
	}

	return g.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: g.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     g.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// Clear deletes and recreates the collection.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.client.DeleteCollection(ctx, g.collectionName); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return g.EnsureCollection(ctx)
}

// Info summarizes the collection's state. Exists is false (with zero
// values everywhere else) when the collection has not been created yet.
type Info struct {
	Exists      bool   `json:"exists"`
	Status      string `json:"status,omitempty"`
	PointsCount uint64 `json:"points_count"`
	Dimension   uint64 `json:"dimension,omitempty"`
	Distance    string `json:"distance,omitempty"`
}

// CollectionInfo reports the collection's status, point count, and vector
// parameters.
func (g *Gateway) CollectionInfo(ctx context.Context) (Info, error) {
	exists, err := g.client.CollectionExists(ctx, g.collectionName)
	if err != nil {
		return Info{}, fmt.Errorf("checking collection existence: %w", err)
	}
	if !exists {
		return Info{}, nil
	}

	info, err := g.client.GetCollectionInfo(ctx, g.collectionName)
	if err != nil {
		return Info{}, fmt.Errorf("fetching collection info: %w", err)
	}

	out := Info{
		Exists:      true,
		Status:      info.GetStatus().String(),
		PointsCount: info.GetPointsCount(),
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		out.Dimension = params.GetSize()
		out.Distance = params.GetDistance().String()
	}
	return out, nil
}

// Count returns how many points the collection holds, 0 if it is absent.
func (g *Gateway) Count(ctx context.Context) (uint64, error) {
	info, err := g.CollectionInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.PointsCount, nil
}

// IndexResult is the outcome of an upsert.
type IndexResult struct {
	Success      bool
	IndexedCount int
	Err          error
}

// Upsert writes a batch of embedded snippets to the collection.
func (g *Gateway) Upsert(ctx context.Context, vectors [][]float32, payloads []SnippetPayload) IndexResult {
	if len(vectors) != len(payloads) {
		return IndexResult{Err: fmt.Errorf("vector count (%d) != payload count (%d)", len(vectors), len(payloads))}
	}
	if len(vectors) == 0 {
		return IndexResult{Success: true}
	}

	if err := g.EnsureCollection(ctx); err != nil {
		return IndexResult{Err: err}
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, payload := range payloads {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(payload.SnippetID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload.toMap()),
		}
	}

	_, err := g.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: g.collectionName,
		Points:         points,
	})
	if err != nil {
		return IndexResult{Err: fmt.Errorf("upserting snippets: %w", err)}
	}
	return IndexResult{Success: true, IndexedCount: len(points)}
}

// SearchFilters narrows a semantic search to snippets matching the given
// field values. A zero value field is left unfiltered.
type SearchFilters struct {
	Energy  string
	Emotion string
	Genre   string
}

// Search returns the snippets whose embeddings are closest to queryVector.
func (g *Gateway) Search(ctx context.Context, queryVector []float32, limit int, filters SearchFilters) ([]SearchResult, error) {
	var conditions []*qdrant.Condition
	if filters.Energy != "" {
		conditions = append(conditions, qdrant.NewMatch("energy", filters.Energy))
	}
	if filters.Emotion != "" {
		conditions = append(conditions, qdrant.NewMatch("primary_emotion", filters.Emotion))
	}
	if filters.Genre != "" {
		conditions = append(conditions, qdrant.NewMatch("genre", filters.Genre))
	}

	var filter *qdrant.Filter
	if len(conditions) > 0 {
		filter = &qdrant.Filter{Must: conditions}
	}

	lim := uint64(limit)
	points, err := g.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: g.collectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &lim,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		payload := make(map[string]any, len(p.GetPayload()))
		for k, v := range p.GetPayload() {
			payload[k] = v.AsInterface()
		}
		results = append(results, SearchResult{
			SnippetID: p.GetId().GetUuid(),
			Score:     p.GetScore(),
			Payload:   payload,
		})
	}
	return results, nil
}
