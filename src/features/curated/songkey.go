package curated

import (
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
)

var featureMarkers = []string{" ft.", " feat.", " featuring", " ft ", " feat ", "(ft.", "(feat."}

var decorationMarkers = []string{
	"(official)", "(lyrics)", "(audio)", "(video)",
	"(official video)", "(official audio)", "(lyric video)",
}

// normalizeComponent transliterates to ASCII, strips featuring markers and
// known decoration, keeps only alphanumerics/whitespace, and collapses
// whitespace — matching the identity used to dedupe curated tracks.
func normalizeComponent(s string) string {
	s = strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))

	cut := len(s)
	for _, marker := range featureMarkers {
		if idx := strings.Index(s, marker); idx != -1 && idx < cut {
			cut = idx
		}
	}
	s = s[:cut]

	for _, marker := range decorationMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeSongKey builds the identity used to detect the same song
// imported twice under different video titles.
func NormalizeSongKey(artist, title string) string {
	return normalizeComponent(artist) + "|" + normalizeComponent(title)
}
