package segmenter

import "strings"

// validGenres is the closed vocabulary tracks are classified into.
var validGenres = map[string]bool{
	"afrobeats": true, "reggaeton": true, "dancehall": true, "hip-hop": true,
	"r&b": true, "pop": true, "rock": true, "country": true, "latin": true,
	"electronic": true, "folk": true, "jazz": true, "classical": true,
	"metal": true, "indie": true, "soul": true, "funk": true, "gospel": true,
	"blues": true, "reggae": true, "punk": true, "disco": true, "house": true,
	"techno": true, "trap": true, "drill": true, "afropop": true,
	"amapiano": true, "kizomba": true, "soca": true, "calypso": true,
	"bachata": true, "salsa": true, "cumbia": true, "merengue": true,
	"other": true,
}

// genreAliases maps common free-text genre spellings onto validGenres.
var genreAliases = map[string]string{
	"hiphop":           "hip-hop",
	"hip hop":          "hip-hop",
	"rnb":              "r&b",
	"rhythm and blues": "r&b",
	"afro":             "afrobeats",
	"afro-beats":       "afrobeats",
	"dancehall/reggae": "dancehall",
	"edm":              "electronic",
	"dance":            "electronic",
	"alternative":      "indie",
	"alt rock":         "indie",
	"alt-rock":         "indie",
	"alternative rock": "indie",
	"urban":            "hip-hop",
	"tropical":         "latin",
	"world":            "other",
}

// normalizeGenre coerces free-text model output into one of validGenres,
// falling back to exact alias lookup, then substring matching, then "other".
func normalizeGenre(genre string) string {
	g := strings.ToLower(strings.TrimSpace(genre))
	if validGenres[g] {
		return g
	}
	if alias, ok := genreAliases[g]; ok {
		return alias
	}
	for candidate := range validGenres {
		if candidate == "other" {
			continue
		}
		if strings.Contains(g, candidate) || strings.Contains(candidate, g) {
			return candidate
		}
	}
	return "other"
}
