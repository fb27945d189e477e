package segmenter

import "testing"

func TestNormalizeGenre_ExactMatch(t *testing.T) {
	if got := normalizeGenre("pop"); got != "pop" {
		t.Errorf("expected %q, got %q", "pop", got)
	}
}

func TestNormalizeGenre_TrimsAndLowercases(t *testing.T) {
	if got := normalizeGenre("  Hip-Hop  "); got != "hip-hop" {
		t.Errorf("expected %q, got %q", "hip-hop", got)
	}
}

func TestNormalizeGenre_AliasTable(t *testing.T) {
	tests := map[string]string{
		"hiphop":   "hip-hop",
		"hip hop":  "hip-hop",
		"rnb":      "r&b",
		"alt-rock": "indie",
		"edm":      "electronic",
		"urban":    "hip-hop",
		"world":    "other",
	}
	for in, want := range tests {
		if got := normalizeGenre(in); got != want {
			t.Errorf("normalizeGenre(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeGenre_SubstringFallback(t *testing.T) {
	if got := normalizeGenre("pop music"); got != "pop" {
		t.Errorf("expected %q, got %q", "pop", got)
	}
}

func TestNormalizeGenre_UnknownFallsBackToOther(t *testing.T) {
	if got := normalizeGenre("experimental noise collage"); got != "other" {
		t.Errorf("expected %q, got %q", "other", got)
	}
}

func TestNormalizeGenre_Idempotent(t *testing.T) {
	inputs := []string{"pop", "hiphop", "Pop Music", "world", "something unknown"}
	for _, in := range inputs {
		once := normalizeGenre(in)
		twice := normalizeGenre(once)
		if once != twice {
			t.Errorf("normalizeGenre not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestValidateSegments_RejectsInvalidBounds(t *testing.T) {
	segs := []Segment{
		{StartLine: 0, EndLine: 2, AIDescription: "d", PrimaryEmotion: "joy"},
		{StartLine: 3, EndLine: 2, AIDescription: "d", PrimaryEmotion: "joy"},
		{StartLine: 1, EndLine: 20, AIDescription: "d", PrimaryEmotion: "joy"},
	}
	valid, diagnostics := ValidateSegments(segs, 10)
	if len(valid) != 0 {
		t.Errorf("expected no valid segments, got %d", len(valid))
	}
	if len(diagnostics) != 3 {
		t.Errorf("expected 3 diagnostics, got %d", len(diagnostics))
	}
}

func TestValidateSegments_RejectsMissingFields(t *testing.T) {
	segs := []Segment{
		{StartLine: 1, EndLine: 2, AIDescription: "", PrimaryEmotion: "joy"},
		{StartLine: 1, EndLine: 2, AIDescription: "d", PrimaryEmotion: ""},
	}
	valid, diagnostics := ValidateSegments(segs, 10)
	if len(valid) != 0 {
		t.Errorf("expected no valid segments, got %d", len(valid))
	}
	if len(diagnostics) != 2 {
		t.Errorf("expected 2 diagnostics, got %d", len(diagnostics))
	}
}

func TestValidateSegments_CoercesUnknownEnergyToMedium(t *testing.T) {
	segs := []Segment{
		{StartLine: 1, EndLine: 2, AIDescription: "d", PrimaryEmotion: "joy", Energy: "explosive"},
	}
	valid, diagnostics := ValidateSegments(segs, 10)
	if len(diagnostics) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diagnostics)
	}
	if len(valid) != 1 {
		t.Fatalf("expected 1 valid segment, got %d", len(valid))
	}
	if valid[0].Energy != "medium" {
		t.Errorf("expected energy coerced to %q, got %q", "medium", valid[0].Energy)
	}
}

func TestValidateSegments_KeepsRecognizedEnergy(t *testing.T) {
	segs := []Segment{
		{StartLine: 1, EndLine: 2, AIDescription: "d", PrimaryEmotion: "joy", Energy: "very-high"},
	}
	valid, _ := ValidateSegments(segs, 10)
	if valid[0].Energy != "very-high" {
		t.Errorf("expected energy preserved as %q, got %q", "very-high", valid[0].Energy)
	}
}

func TestParseBatchedResponse_MissingSongIsFlagged(t *testing.T) {
	songs := []Song{
		{TrackID: 1, Title: "Song A", Artist: "Artist A"},
		{TrackID: 2, Title: "Song B", Artist: "Artist B"},
	}
	// Only song_index 1 is returned; song 2 is missing from the response.
	text := `{"songs":[{"song_index":1,"genre":"pop","segments":[{"start_line":1,"end_line":2,"ai_description":"d","primary_emotion":"joy","energy":"medium"}]}]}`

	results, err := parseBatchedResponse(text, songs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Err != nil {
		t.Errorf("expected song 1 to succeed, got error: %v", results[0].Err)
	}
	if len(results[0].Segments) != 1 {
		t.Errorf("expected 1 segment for song 1, got %d", len(results[0].Segments))
	}

	if results[1].Err == nil {
		t.Error("expected song 2 (missing from response) to carry an error")
	}
	if results[1].TrackID != 2 {
		t.Errorf("expected TrackID 2, got %d", results[1].TrackID)
	}
}

func TestParseBatchedResponse_PerSongErrorPassesThrough(t *testing.T) {
	songs := []Song{{TrackID: 5, Title: "Song", Artist: "Artist"}}
	text := `{"songs":[{"song_index":1,"genre":"rock","error":"lyrics too ambiguous"}]}`

	results, err := parseBatchedResponse(text, songs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Err == nil {
		t.Fatal("expected per-song error to be propagated")
	}
	if results[0].Genre != "rock" {
		t.Errorf("expected genre %q, got %q", "rock", results[0].Genre)
	}
}

func TestParseBatchedResponse_StripsCodeFences(t *testing.T) {
	songs := []Song{{TrackID: 1, Title: "Song", Artist: "Artist"}}
	text := "```json\n" + `{"songs":[{"song_index":1,"genre":"jazz","segments":[]}]}` + "\n```"

	results, err := parseBatchedResponse(text, songs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Genre != "jazz" {
		t.Errorf("expected genre %q, got %q", "jazz", results[0].Genre)
	}
}
