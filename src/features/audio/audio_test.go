package audio

import "testing"

func TestFuzzyRatio_IdenticalStrings(t *testing.T) {
	if got := fuzzyRatio("hello", "hello"); got != 1.0 {
		t.Errorf("expected ratio 1.0, got %v", got)
	}
}

func TestFuzzyRatio_EmptyStrings(t *testing.T) {
	if got := fuzzyRatio("", ""); got != 1.0 {
		t.Errorf("expected ratio 1.0 for two empty strings, got %v", got)
	}
}

func TestFuzzyRatio_CompletelyDifferent(t *testing.T) {
	if got := fuzzyRatio("abc", "xyz"); got != 0 {
		t.Errorf("expected ratio 0, got %v", got)
	}
}

func TestFuzzyContains_ExactSubstring(t *testing.T) {
	if !fuzzyContains("Taylor Swift - Love Story (Official Video)", "Love Story", 0.7) {
		t.Error("expected exact substring match to short-circuit true")
	}
}

func TestFuzzyContains_WordLevelTypo(t *testing.T) {
	if !fuzzyContains("Drake - Gods Plann (Lyric Video)", "God's Plan", 0.7) {
		t.Error("expected word-level fuzzy match to succeed for a near match")
	}
}

func TestFuzzyContains_Unrelated(t *testing.T) {
	if fuzzyContains("Completely Unrelated Track", "Some Other Song", 0.7) {
		t.Error("expected unrelated strings not to match")
	}
}

func TestScoreCandidate_TitleAndArtistMatchWithGoodDuration(t *testing.T) {
	c := SearchCandidate{Title: "Love Story - Taylor Swift", Uploader: "Taylor Swift", Duration: 100}
	score := scoreCandidate(c, "Love Story", "Taylor Swift", 100.5)
	// +50 title, +40 artist-in-title, +20 duration (<=1s), no official marker.
	if score != 110 {
		t.Errorf("expected score 110, got %v", score)
	}
}

func TestScoreCandidate_TitleOnlyNoArtistPenalized(t *testing.T) {
	c := SearchCandidate{Title: "Love Story Cover by Nobody", Uploader: "RandomUploader", Duration: 100}
	score := scoreCandidate(c, "Love Story", "Taylor Swift", 100)
	// +50 title, no artist match anywhere -> -30 penalty, +20 duration.
	if score != 40 {
		t.Errorf("expected score 40, got %v", score)
	}
}

func TestScoreCandidate_OfficialUploaderBonus(t *testing.T) {
	c := SearchCandidate{Title: "Love Story", Uploader: "Taylor Swift VEVO", Duration: 100}
	score := scoreCandidate(c, "Love Story", "Taylor Swift", 100)
	// +50 title, +30 artist-in-uploader, +20 duration, +10 official marker.
	if score != 110 {
		t.Errorf("expected score 110, got %v", score)
	}
}

func TestScoreCandidate_LargeDurationDriftPenalized(t *testing.T) {
	c := SearchCandidate{Title: "Love Story", Uploader: "Taylor Swift", Duration: 250}
	score := scoreCandidate(c, "Love Story", "Taylor Swift", 100)
	// +50 title, +30 artist-in-uploader, -20 large duration drift.
	if score != 60 {
		t.Errorf("expected score 60, got %v", score)
	}
}

func TestVersionCheck(t *testing.T) {
	tests := []struct {
		name                  string
		lrcDur, audioDur, tol float64
		wantOK                bool
	}{
		{"within tolerance", 100, 101, 2.0, true},
		{"exactly at tolerance", 100, 102, 2.0, true},
		{"beyond tolerance", 100, 103, 2.0, false},
		{"negative drift within tolerance", 100, 98.5, 2.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := VersionCheck(tt.lrcDur, tt.audioDur, tt.tol)
			if ok != tt.wantOK {
				t.Errorf("expected ok=%v", tt.wantOK)
			}
		})
	}
}
