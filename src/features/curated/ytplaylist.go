package curated

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

type flatPlaylistEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
	URL      string  `json:"webpage_url"`
}

// ExtractPlaylistVideos lists every video in a YouTube playlist without
// downloading anything.
func ExtractPlaylistVideos(ctx context.Context, playlistURL string) ([]YouTubeVideo, error) {
	cctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, "yt-dlp", "--flat-playlist", "--dump-json", playlistURL).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp playlist listing: %w", err)
	}

	var videos []YouTubeVideo
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		var entry flatPlaylistEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		uploader := entry.Uploader
		if uploader == "" {
			uploader = entry.Channel
		}
		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}
		videos = append(videos, YouTubeVideo{
			VideoID: entry.ID, Title: entry.Title, Uploader: uploader,
			Duration: entry.Duration, URL: url,
		})
	}
	return videos, nil
}

// GetPlaylistTitle fetches a playlist's display title, if available.
func GetPlaylistTitle(ctx context.Context, playlistURL string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(cctx, "yt-dlp", "--flat-playlist",
		"--print", "%(playlist_title)s", "--playlist-items", "1", playlistURL).Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp playlist title: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
