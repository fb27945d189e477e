// Package segmenter asks an LLM to split synced lyrics into emotionally
// coherent segments and classify the track's genre.
package segmenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/orinfm/pipeline/src/features/config"
)

var validEnergies = map[string]bool{"low": true, "medium": true, "high": true, "very-high": true}

// Segment is one emotionally coherent slice of a song's lyrics.
type Segment struct {
	StartLine        int    `json:"start_line"`
	EndLine          int    `json:"end_line"`
	Lyrics           string `json:"lyrics"`
	AIDescription    string `json:"ai_description"`
	PrimaryEmotion   string `json:"primary_emotion"`
	SecondaryEmotion string `json:"secondary_emotion,omitempty"`
	Energy           string `json:"energy"`
	Tone             string `json:"tone"`
}

// Result is the outcome of segmenting a single track's lyrics.
type Result struct {
	Success    bool
	Segments   []Segment
	Genre      string
	Provider   string
	Err        error
	RetryAfter *time.Duration // set only when a provider rate-limited us
}

// BatchedSongResult is one song's outcome within a BatchSegment call.
type BatchedSongResult struct {
	TrackID  int64
	SongIdx  int
	Title    string
	Artist   string
	Genre    string
	Segments []Segment
	Err      error
}

// BatchResult is the outcome of segmenting several tracks in one LLM call.
type BatchResult struct {
	Success     bool
	SongResults []BatchedSongResult
	Provider    string
	Err         error
	RetryAfter  *time.Duration
}

// Song is one track submitted to BatchSegment.
type Song struct {
	TrackID int64
	Title   string
	Artist  string
	Lyrics  string // plain lyric lines; buildSongsSection numbers them
}

// Segmenter calls LLM providers to segment lyrics, retrying across a
// configured provider list.
type Segmenter struct {
	cfg *config.Manager
}

// New builds a Segmenter against the application configuration.
func New(cfg *config.Manager) *Segmenter {
	return &Segmenter{cfg: cfg}
}

func (s *Segmenter) client(provider string) (*openai.Client, string, error) {
	key := s.cfg.ProviderAPIKey(provider)
	if key == "" {
		return nil, "", fmt.Errorf("no API key configured for provider %q", provider)
	}

	var baseURL, model string
	switch provider {
	case "groq":
		baseURL = "https://api.groq.com/openai/v1"
		model = s.cfg.Get().Segmenter.GroqModel
	case "together":
		baseURL = "https://api.together.xyz/v1"
		model = s.cfg.Get().Segmenter.TogetherModel
	default:
		return nil, "", fmt.Errorf("unknown provider %q", provider)
	}

	client := openai.NewClient(option.WithAPIKey(key), option.WithBaseURL(baseURL))
	return &client, model, nil
}

// rateLimitInfo extracts a provider's advertised retry delay from an error,
// if the error represents an HTTP 429 response.
func rateLimitInfo(err error) (time.Duration, bool) {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}

	if apiErr.Response != nil {
		if ms := apiErr.Response.Header.Get("retry-after-ms"); ms != "" {
			if n, err := strconv.ParseFloat(ms, 64); err == nil {
				return time.Duration(n) * time.Millisecond, true
			}
		}
		if secs := apiErr.Response.Header.Get("retry-after"); secs != "" {
			if n, err := strconv.ParseFloat(secs, 64); err == nil {
				return time.Duration(n * float64(time.Second)), true
			}
		}
	}
	return 60 * time.Second, true
}

func (s *Segmenter) complete(ctx context.Context, provider, prompt string, maxTokens int64) (string, error) {
	client, model, err := s.client(provider)
	if err != nil {
		return "", err
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a music analysis expert. Output only valid JSON."),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("provider %q returned no choices", provider)
	}
	return resp.Choices[0].Message.Content, nil
}

// SegmentOne segments a single track's lyrics, trying each configured
// provider in turn with linear-backoff retries. A rate-limited response is
// returned immediately with RetryAfter set and is never slept through.
func (s *Segmenter) SegmentOne(ctx context.Context, lyrics, title, artist string) Result {
	providers := s.cfg.Get().Segmenter.Providers
	maxRetries := s.cfg.Get().Segmenter.MaxRetries
	retryDelay := s.cfg.Get().Segmenter.RetryDelaySeconds

	prompt := strings.Replace(segmentationPrompt, "{lyrics}", numberedLyrics(lyrics), 1)

	for _, provider := range providers {
		for attempt := 0; attempt < maxRetries; attempt++ {
			text, err := s.complete(ctx, provider, prompt, 4000)
			if err != nil {
				if retryAfter, limited := rateLimitInfo(err); limited {
					return Result{Success: false, Provider: provider, Err: err, RetryAfter: &retryAfter}
				}
				if strings.Contains(err.Error(), "no API key configured") {
					break // move to next provider, no retry
				}
				slog.Warn("segmentation attempt failed", "provider", provider, "attempt", attempt, "error", err)
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}

			genre, segments, parseErr := parseSegmentsResponse(text)
			if parseErr != nil {
				slog.Warn("segmentation response parse failed", "provider", provider, "error", parseErr)
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}
			if len(segments) == 0 {
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}
			return Result{Success: true, Segments: segments, Genre: normalizeGenre(genre), Provider: provider}
		}
	}

	return Result{Success: false, Err: fmt.Errorf("all providers exhausted")}
}

// BatchSegment segments several tracks in one LLM call. A rate-limited
// response is returned immediately and must terminate the caller's whole
// run, not just this batch.
func (s *Segmenter) BatchSegment(ctx context.Context, songs []Song) BatchResult {
	providers := s.cfg.Get().Segmenter.Providers
	maxRetries := s.cfg.Get().Segmenter.MaxRetries
	retryDelay := s.cfg.Get().Segmenter.RetryDelaySeconds

	prompt := strings.Replace(batchedSegmentationPrompt, "{songs_section}", buildSongsSection(songs), 1)
	maxTokens := int64(len(songs) * 1500)
	if maxTokens > 15000 {
		maxTokens = 15000
	}

	for _, provider := range providers {
		for attempt := 0; attempt < maxRetries; attempt++ {
			text, err := s.complete(ctx, provider, prompt, maxTokens)
			if err != nil {
				if retryAfter, limited := rateLimitInfo(err); limited {
					return BatchResult{Success: false, Provider: provider, Err: err, RetryAfter: &retryAfter}
				}
				if strings.Contains(err.Error(), "no API key configured") {
					break
				}
				slog.Warn("batch segmentation attempt failed", "provider", provider, "attempt", attempt, "error", err)
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}

			results, parseErr := parseBatchedResponse(text, songs)
			if parseErr != nil {
				slog.Warn("batch segmentation response parse failed", "provider", provider, "error", parseErr)
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}

			successCount := 0
			for _, r := range results {
				if len(r.Segments) > 0 {
					successCount++
				}
			}
			if successCount == 0 {
				sleepBackoff(ctx, retryDelay, attempt)
				continue
			}
			return BatchResult{Success: true, SongResults: results, Provider: provider}
		}
	}

	results := make([]BatchedSongResult, len(songs))
	for i, song := range songs {
		results[i] = BatchedSongResult{
			TrackID: song.TrackID, SongIdx: i + 1, Title: song.Title, Artist: song.Artist,
			Err: fmt.Errorf("batch API call failed"),
		}
	}
	return BatchResult{Success: false, SongResults: results, Err: fmt.Errorf("all providers exhausted")}
}

func sleepBackoff(ctx context.Context, retryDelaySeconds float64, attempt int) {
	d := time.Duration(retryDelaySeconds*float64(attempt+1)) * time.Second
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func numberedLyrics(lyrics string) string {
	var b strings.Builder
	n := 1
	for _, line := range strings.Split(lyrics, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", n, line)
		n++
	}
	return b.String()
}

func buildSongsSection(songs []Song) string {
	var b strings.Builder
	for i, song := range songs {
		fmt.Fprintf(&b, "--- SONG %d: %q by %s ---\nLyrics (with line numbers):\n%s\n",
			i+1, song.Title, song.Artist, numberedLyrics(song.Lyrics))
	}
	return b.String()
}

func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

type segmentsResponse struct {
	Genre    string    `json:"genre"`
	Segments []Segment `json:"segments"`
}

func parseSegmentsResponse(text string) (string, []Segment, error) {
	var resp segmentsResponse
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &resp); err != nil {
		return "", nil, err
	}
	return resp.Genre, resp.Segments, nil
}

type batchedSongResponse struct {
	SongIndex int       `json:"song_index"`
	Genre     string    `json:"genre"`
	Segments  []Segment `json:"segments"`
	Error     string    `json:"error"`
}

type batchedResponse struct {
	Songs []json.RawMessage `json:"songs"`
}

func parseBatchedResponse(text string, songs []Song) ([]BatchedSongResult, error) {
	var resp batchedResponse
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &resp); err != nil {
		return nil, err
	}

	bySongIdx := make(map[int]batchedSongResponse, len(resp.Songs))
	entryErrs := make(map[int]error)
	for _, raw := range resp.Songs {
		var s batchedSongResponse
		// On a type error json.Unmarshal still fills the fields that decoded,
		// so song_index identifies which song the malformed entry belongs to.
		if err := json.Unmarshal(raw, &s); err != nil {
			entryErrs[s.SongIndex] = fmt.Errorf("segment parse error: %w", err)
			continue
		}
		bySongIdx[s.SongIndex] = s
	}

	results := make([]BatchedSongResult, len(songs))
	for i, song := range songs {
		songIndex := i + 1 // song_index is 1-indexed, matching buildSongsSection
		r := BatchedSongResult{TrackID: song.TrackID, SongIdx: songIndex, Title: song.Title, Artist: song.Artist}
		entry, ok := bySongIdx[songIndex]
		if !ok {
			r.Err = fmt.Errorf("not returned in batch response")
			if err, malformed := entryErrs[songIndex]; malformed {
				r.Err = err
			}
			results[i] = r
			continue
		}
		if entry.Error != "" {
			r.Genre = normalizeGenre(entry.Genre)
			r.Err = fmt.Errorf("%s", entry.Error)
			results[i] = r
			continue
		}
		r.Genre = normalizeGenre(entry.Genre)
		r.Segments = entry.Segments
		results[i] = r
	}
	return results, nil
}

// ValidateSegments filters out structurally invalid segments, coercing an
// unrecognized energy value to "medium" in place rather than rejecting the
// segment outright. It returns the valid segments plus one diagnostic
// message per rejected segment.
func ValidateSegments(segments []Segment, totalLines int) ([]Segment, []string) {
	var valid []Segment
	var diagnostics []string

	for _, seg := range segments {
		switch {
		case seg.StartLine < 1:
			diagnostics = append(diagnostics, fmt.Sprintf("segment start_line %d < 1", seg.StartLine))
			continue
		case seg.EndLine < seg.StartLine:
			diagnostics = append(diagnostics, fmt.Sprintf("segment end_line %d < start_line %d", seg.EndLine, seg.StartLine))
			continue
		case seg.EndLine > totalLines:
			diagnostics = append(diagnostics, fmt.Sprintf("segment end_line %d exceeds total lines %d", seg.EndLine, totalLines))
			continue
		case seg.AIDescription == "":
			diagnostics = append(diagnostics, "segment missing ai_description")
			continue
		case seg.PrimaryEmotion == "":
			diagnostics = append(diagnostics, "segment missing primary_emotion")
			continue
		}

		if !validEnergies[seg.Energy] {
			seg.Energy = "medium"
		}
		valid = append(valid, seg)
	}

	return valid, diagnostics
}
