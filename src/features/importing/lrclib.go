package importing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// lrclibBaseURL is the public synced-lyrics lookup service this runner
// queries for each imported video.
const lrclibBaseURL = "https://lrclib.net/api/get"

// SearchSyncedLyrics looks up time-synced lyrics for a track, matching on
// artist, title, and approximate duration. found is false (with a nil
// error) when lrclib has no synced lyrics for the track.
func SearchSyncedLyrics(ctx context.Context, artist, title string, duration float64) (lyrics string, found bool, err error) {
	q := url.Values{}
	q.Set("artist_name", artist)
	q.Set("track_name", title)
	q.Set("duration", strconv.Itoa(int(duration)))

	reqURL := lrclibBaseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", false, err
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	var payload struct {
		SyncedLyrics string `json:"syncedLyrics"`
		Instrumental bool   `json:"instrumental"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, err
	}
	if payload.Instrumental || payload.SyncedLyrics == "" {
		return "", false, nil
	}

	return payload.SyncedLyrics, true, nil
}

// featureSuffixPattern strips a trailing "(feat. ...)" / "[ft. ...]" /
// "featuring ..." clause so the base title can be tried on its own.
var featureSuffixPattern = regexp.MustCompile(`(?i)\s*[\(\[]?\s*(feat\.?|ft\.?|featuring)\b[^\)\]]*[\)\]]?\s*$`)

// titleVariants returns title, then its base form with any trailing
// featuring-artist clause removed, deduplicated and in that order.
func titleVariants(title string) []string {
	variants := []string{title}
	if base := strings.TrimSpace(featureSuffixPattern.ReplaceAllString(title, "")); base != "" && base != title {
		variants = append(variants, base)
	}
	return variants
}

// lookupSyncedLyrics tries lrclib with the video's title as given, then
// with featuring-artist suffixes stripped, returning the first hit.
func lookupSyncedLyrics(ctx context.Context, artist, title string, duration float64) (string, bool) {
	for _, variant := range titleVariants(title) {
		lyrics, found, err := SearchSyncedLyrics(ctx, artist, variant, duration)
		if err != nil {
			continue
		}
		if found {
			return lyrics, true
		}
	}
	return "", false
}
