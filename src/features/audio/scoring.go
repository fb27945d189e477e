package audio

import "strings"

// SearchCandidate is one yt-dlp search result awaiting scoring.
type SearchCandidate struct {
	VideoID  string
	Title    string
	Uploader string
	Duration float64
	URL      string
	Score    float64
}

var officialUploaderMarkers = []string{"official", "vevo", "records", "music", "topic"}

// scoreCandidate ranks a search result against the expected metadata. Higher
// is better; callers compare against MatchThreshold.
func scoreCandidate(c SearchCandidate, expectedTitle, expectedArtist string, expectedDuration float64) float64 {
	var score float64
	titleMatched := false
	artistMatched := false

	if fuzzyContains(c.Title, expectedTitle, 0.7) {
		score += 50
		titleMatched = true
	}

	if fuzzyContains(c.Title, expectedArtist, 0.7) {
		score += 40
		artistMatched = true
	} else if fuzzyContains(c.Uploader, expectedArtist, 0.7) {
		score += 30
		artistMatched = true
	}

	if titleMatched && !artistMatched {
		score -= 30
	}

	drift := c.Duration - expectedDuration
	if drift < 0 {
		drift = -drift
	}
	switch {
	case drift <= 1.0:
		score += 20
	case drift <= 2.0:
		score += 10
	case drift <= 5.0:
		score += 5
	default:
		score -= 20
	}

	uploaderLower := strings.ToLower(c.Uploader)
	for _, marker := range officialUploaderMarkers {
		if strings.Contains(uploaderLower, marker) {
			score += 10
			break
		}
	}

	return score
}
