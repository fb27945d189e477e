// Package audio acquires matching audio for a track via yt-dlp, slices
// snippets out of it with ffmpeg, and probes durations with ffprobe.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/orinfm/pipeline/src/features/config"
)

const (
	audioCodec    = "libopus"
	snippetFormat = "opus"
)

var unsafeNameChars = regexp.MustCompile(`[/\\]`)

// DownloadResult is the outcome of acquiring a full track's audio.
type DownloadResult struct {
	Success  bool
	FilePath string
	Duration float64
	YTURL    string
	YTTitle  string
	Err      error
}

// SliceResult is the outcome of cutting a snippet out of a source file.
type SliceResult struct {
	Success  bool
	FilePath string
	Duration float64
	Err      error
}

// Acquirer finds and downloads audio matching a track's metadata.
type Acquirer struct {
	cfg *config.Manager
}

// New builds an Acquirer against the application configuration.
func New(cfg *config.Manager) *Acquirer {
	return &Acquirer{cfg: cfg}
}

// ProbeDuration reads a media file's duration in seconds via ffprobe.
func ProbeDuration(filePath string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ffprobe", "-v", "quiet",
		"-show_entries", "format=duration", "-of", "json", filePath).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("ffprobe output: %w", err)
	}

	var duration float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &duration); err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", probe.Format.Duration, err)
	}
	return duration, nil
}

// VersionCheck reports whether audioDuration is within tolerance of
// lrcDuration, and the absolute drift between them.
func VersionCheck(lrcDuration, audioDuration, tolerance float64) (ok bool, drift float64) {
	drift = math.Abs(lrcDuration - audioDuration)
	return drift <= tolerance, drift
}

func safeFileName(artist, title string) string {
	name := unsafeNameChars.ReplaceAllString(fmt.Sprintf("%s - %s", artist, title), "-")
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

type ytSearchEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	URL      string  `json:"webpage_url"`
}

func searchYTDLP(ctx context.Context, query string, resultCount int) ([]ytSearchEntry, error) {
	searchQuery := fmt.Sprintf("ytsearch%d:%s", resultCount, query)

	cctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, "yt-dlp", "--dump-json", "--no-download",
		"-f", "bestaudio/best", searchQuery).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}

	var entries []ytSearchEntry
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		var entry ytSearchEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Acquire searches for and downloads a match for the given track metadata,
// scoring candidates until one clears MatchThreshold or every query is
// exhausted.
func (a *Acquirer) Acquire(ctx context.Context, artist, title string, expectedDuration float64) DownloadResult {
	audioCfg := a.cfg.Get().Audio
	workDir := a.cfg.Get().Paths.WorkDir

	queries := []string{
		fmt.Sprintf("%s %s", artist, title),
		fmt.Sprintf("%s - %s", artist, title),
		fmt.Sprintf("%s %s", title, artist),
	}

	seen := map[string]SearchCandidate{}
	var ordered []string

	for _, query := range queries {
		entries, err := searchYTDLP(ctx, query, audioCfg.SearchResults)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if _, exists := seen[entry.ID]; exists {
				continue
			}
			uploader := entry.Uploader
			if uploader == "" {
				uploader = entry.Channel
			}
			duration := entry.Duration
			if duration == 0 {
				duration = expectedDuration
			}
			cand := SearchCandidate{
				VideoID: entry.ID, Title: entry.Title, Uploader: uploader,
				Duration: duration, URL: entry.URL,
			}
			seen[entry.ID] = cand
			ordered = append(ordered, entry.ID)
		}

		for _, id := range ordered {
			c := seen[id]
			c.Score = scoreCandidate(c, title, artist, expectedDuration)
			seen[id] = c
		}

		if best := bestCandidate(seen, ordered); best != nil && int(best.Score) >= audioCfg.MatchThreshold {
			break
		}
	}

	best, alternatives := rankCandidates(seen, ordered)
	if best == nil {
		return DownloadResult{Err: fmt.Errorf("no search results found")}
	}
	if int(best.Score) < audioCfg.MatchThreshold {
		return DownloadResult{Err: fmt.Errorf("best candidate %q scored %.0f, below threshold; alternatives: %s",
			best.Title, best.Score, alternatives)}
	}

	outputName := safeFileName(artist, title)
	outputTemplate := filepath.Join(workDir, outputName+".%(ext)s")

	dctx, cancel := context.WithTimeout(ctx, 300*time.Second)
	defer cancel()

	if err := exec.CommandContext(dctx, "yt-dlp",
		"-f", "bestaudio/best", "-x", "--audio-format", "mp3", "--audio-quality", "0",
		"-o", outputTemplate, "--no-playlist", "--no-warnings", best.URL).Run(); err != nil {
		return DownloadResult{Err: fmt.Errorf("yt-dlp download: %w", err)}
	}

	matches, err := filepath.Glob(filepath.Join(workDir, outputName+".*"))
	if err != nil || len(matches) == 0 {
		return DownloadResult{Err: fmt.Errorf("downloaded file not found for %q", outputName)}
	}
	filePath := matches[0]

	duration, err := ProbeDuration(filePath)
	if err != nil {
		return DownloadResult{Err: fmt.Errorf("probing downloaded file: %w", err)}
	}

	return DownloadResult{
		Success: true, FilePath: filePath, Duration: duration,
		YTURL: best.URL, YTTitle: best.Title,
	}
}

func bestCandidate(seen map[string]SearchCandidate, ordered []string) *SearchCandidate {
	best, _ := rankCandidates(seen, ordered)
	return best
}

func rankCandidates(seen map[string]SearchCandidate, ordered []string) (*SearchCandidate, string) {
	candidates := make([]SearchCandidate, 0, len(ordered))
	for _, id := range ordered {
		candidates = append(candidates, seen[id])
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if len(candidates) == 0 {
		return nil, ""
	}

	var alts []string
	for i := 1; i < len(candidates) && i <= 3; i++ {
		alts = append(alts, fmt.Sprintf("%q (%.0f)", candidates[i].Title, candidates[i].Score))
	}
	best := candidates[0]
	return &best, strings.Join(alts, ", ")
}

// Slice cuts [startTime, endTime] out of inputFile into a new opus file
// named outputName inside outputDir, encoded at bitrateKbps kbps.
func Slice(inputFile string, startTime, endTime float64, outputName, outputDir string, bitrateKbps int) SliceResult {
	outputPath := filepath.Join(outputDir, outputName+"."+snippetFormat)
	if bitrateKbps <= 0 {
		bitrateKbps = 96
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", inputFile,
		"-ss", fmt.Sprintf("%.3f", startTime), "-to", fmt.Sprintf("%.3f", endTime),
		"-c:a", audioCodec, "-b:a", fmt.Sprintf("%dk", bitrateKbps), "-vn", outputPath).Run()
	if err != nil {
		return SliceResult{Err: fmt.Errorf("ffmpeg slice: %w", err)}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return SliceResult{Err: fmt.Errorf("sliced file missing: %w", err)}
	}

	duration, err := ProbeDuration(outputPath)
	if err != nil {
		return SliceResult{Err: fmt.Errorf("probing sliced file: %w", err)}
	}

	return SliceResult{Success: true, FilePath: outputPath, Duration: duration}
}

// CleanupFile best-effort removes a temporary audio file, swallowing errors.
func CleanupFile(filePath string) {
	if filePath == "" {
		return
	}
	_ = os.Remove(filePath)
}
