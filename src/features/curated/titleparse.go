package curated

import (
	"regexp"
	"strings"
)

// titleCleanPatterns strips the bracketed/parenthetical noise YouTube video
// titles accumulate around the actual song title.
var titleCleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(official\s*(music\s*)?video\)`),
	regexp.MustCompile(`(?i)\(official\s*audio\)`),
	regexp.MustCompile(`(?i)\(official\)`),
	regexp.MustCompile(`(?i)\[official\s*(music\s*)?video\]`),
	regexp.MustCompile(`(?i)\[official\s*audio\]`),
	regexp.MustCompile(`(?i)\[official\]`),
	regexp.MustCompile(`(?i)\(lyric\s*video\)`),
	regexp.MustCompile(`(?i)\(lyrics\)`),
	regexp.MustCompile(`(?i)\[lyric\s*video\]`),
	regexp.MustCompile(`(?i)\[lyrics\]`),
	regexp.MustCompile(`(?i)\(audio\s*only\)`),
	regexp.MustCompile(`(?i)\[audio\s*only\]`),
	regexp.MustCompile(`(?i)\(vid[eé]o\s*oficial\)`),
	regexp.MustCompile(`(?i)\(vid[eé]o\s*officiel\)`),
	regexp.MustCompile(`(?i)\[vid[eé]o\s*oficial\]`),
	regexp.MustCompile(`(?i)\(performance\s*video\)`),
	regexp.MustCompile(`(?i)\[performance[^\]]*\]`),
	regexp.MustCompile(`(?i)\(live[^)]*\)`),
	regexp.MustCompile(`(?i)\[live[^\]]*\]`),
	regexp.MustCompile(`(?i)\(acoustic\s*(version|video|session)\)`),
	regexp.MustCompile(`(?i)\[acoustic[^\]]*\]`),
	regexp.MustCompile(`(?i)\[hd\]`),
	regexp.MustCompile(`(?i)\[hq\]`),
	regexp.MustCompile(`(?i)\(hd\)`),
	regexp.MustCompile(`(?i)\(hq\)`),
	regexp.MustCompile(`(?i)\(prod\.[^)]*\)`),
	regexp.MustCompile(`(?i)\[prod\.[^\]]*\]`),
}

// CleanTitle strips known YouTube title decoration.
func CleanTitle(title string) string {
	for _, p := range titleCleanPatterns {
		title = p.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

var titleSeparators = []string{" - ", " – ", " — ", " | ", ": "}

func containsFeat(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "ft.") || strings.Contains(lower, "feat.")
}

// ParseVideoTitle splits a cleaned video title into (artist, song) using the
// first recognized separator. If only the left side looks like it names
// featured artists, the halves are returned swapped.
func ParseVideoTitle(title string) (artist, song string) {
	cleaned := CleanTitle(title)

	for _, sep := range titleSeparators {
		idx := strings.Index(cleaned, sep)
		if idx == -1 {
			continue
		}
		left := strings.TrimSpace(cleaned[:idx])
		right := strings.TrimSpace(cleaned[idx+len(sep):])

		switch {
		case containsFeat(right):
			return left, right
		case containsFeat(left):
			return right, left
		default:
			return left, right
		}
	}

	return "", cleaned
}
