package curated

import "testing"

func TestNormalizeSongKey_StripsDecorationAndTransliterates(t *testing.T) {
	got := NormalizeSongKey("Beyoncé", "Halo (Official Video)")
	want := "beyonce|halo"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizeSongKey_StripsFeaturingMarker(t *testing.T) {
	got := normalizeComponent("Drake feat. Rihanna")
	want := "drake"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizeSongKey_IsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := NormalizeSongKey("  The Weeknd  ", "Blinding Lights")
	b := NormalizeSongKey("the weeknd", "BLINDING LIGHTS")
	if a != b {
		t.Errorf("expected keys to match, got %q vs %q", a, b)
	}
}

func TestNormalizeSongKey_DifferentSongsProduceDifferentKeys(t *testing.T) {
	a := NormalizeSongKey("Artist", "Song One")
	b := NormalizeSongKey("Artist", "Song Two")
	if a == b {
		t.Error("expected different songs to produce different keys")
	}
}

func TestCleanTitle_StripsOfficialVideoMarker(t *testing.T) {
	got := CleanTitle("Love Story (Official Music Video)")
	want := "Love Story"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleanTitle_StripsLyricsMarker(t *testing.T) {
	got := CleanTitle("Blinding Lights [Lyrics]")
	want := "Blinding Lights"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseVideoTitle_SplitsOnDashSeparator(t *testing.T) {
	artist, song := ParseVideoTitle("Taylor Swift - Love Story")
	if artist != "Taylor Swift" || song != "Love Story" {
		t.Errorf("expected (%q, %q), got (%q, %q)", "Taylor Swift", "Love Story", artist, song)
	}
}

func TestParseVideoTitle_SwapsWhenFeaturingSideIsOnTheLeft(t *testing.T) {
	artist, song := ParseVideoTitle("Blinding Lights ft. Someone - The Weeknd")
	if artist != "The Weeknd" || song != "Blinding Lights ft. Someone" {
		t.Errorf("expected (%q, %q), got (%q, %q)", "The Weeknd", "Blinding Lights ft. Someone", artist, song)
	}
}

func TestParseVideoTitle_NoSeparatorYieldsEmptyArtist(t *testing.T) {
	artist, song := ParseVideoTitle("JustASongTitleWithNoSeparator")
	if artist != "" {
		t.Errorf("expected empty artist, got %q", artist)
	}
	if song != "JustASongTitleWithNoSeparator" {
		t.Errorf("expected song %q, got %q", "JustASongTitleWithNoSeparator", song)
	}
}

func TestParseVideoTitle_StripsDecorationBeforeSplitting(t *testing.T) {
	artist, song := ParseVideoTitle("Drake - God's Plan (Official Video)")
	if artist != "Drake" || song != "God's Plan" {
		t.Errorf("expected (%q, %q), got (%q, %q)", "Drake", "God's Plan", artist, song)
	}
}
