package trackpipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/segmenter"
	"github.com/spf13/viper"
)

func testConfig(t *testing.T) *config.Manager {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.Set("paths.work_dir", dir)
	v.Set("paths.skipped_log_path", filepath.Join(dir, "skipped_songs.jsonl"))
	v.Set("audio.duration_tolerance", 2.0)
	v.Set("audio.slice_bitrate_kbps", 96)
	return config.NewManager(v)
}

func testTrack(lines int) curated.Track {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("[00:")
		b.WriteString([]string{"01", "05", "10", "15", "20", "25", "30", "35", "40", "45", "50", "55"}[i])
		b.WriteString(".00]line text ")
		b.WriteByte(byte('a' + i))
		b.WriteString("\n")
	}
	return curated.Track{
		ID: 1, Name: "Test Song", ArtistName: "Test Artist",
		Duration: 60, SyncedLyrics: b.String(), Genre: "pop",
	}
}

func TestProcess_TooFewLinesIsSkipped(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	outcome := p.Process(context.Background(), testTrack(3), true, nil)

	if outcome.Success {
		t.Error("expected track with 3 lyric lines to be skipped")
	}
	if outcome.SkipReason == "" {
		t.Error("expected a skip reason")
	}
}

func TestProcess_ExactlyFourLinesIsEligible(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	cached := &segmenter.Result{
		Success: true,
		Genre:   "pop",
		Segments: []segmenter.Segment{
			{StartLine: 1, EndLine: 4, AIDescription: "d", PrimaryEmotion: "joy", Energy: "medium"},
		},
	}

	outcome := p.Process(context.Background(), testTrack(4), true, cached)

	if !outcome.Success {
		t.Errorf("expected a 4-line track to be eligible, skip reason: %q", outcome.SkipReason)
	}
}

func TestProcess_DryRunWithCachedSegmentation(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	cached := &segmenter.Result{
		Success: true,
		Genre:   "pop",
		Segments: []segmenter.Segment{
			{StartLine: 1, EndLine: 4, Lyrics: "some lyrics", AIDescription: "quiet longing", PrimaryEmotion: "longing", Energy: "low"},
			{StartLine: 5, EndLine: 12, Lyrics: "more lyrics", AIDescription: "rising defiance", PrimaryEmotion: "defiance", Energy: "high"},
		},
	}

	outcome := p.Process(context.Background(), testTrack(12), true, cached)

	if !outcome.Success {
		t.Fatalf("expected dry run to succeed, skip reason: %q", outcome.SkipReason)
	}
	if outcome.IndexedCount != 2 {
		t.Errorf("expected 2 would-be-indexed segments, got %d", outcome.IndexedCount)
	}
	if outcome.SegmentationData == nil {
		t.Error("expected dry run to carry segmentation data")
	}
}

func TestProcess_DryRunDropsOutOfRangeSegments(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	cached := &segmenter.Result{
		Success: true,
		Segments: []segmenter.Segment{
			{StartLine: 1, EndLine: 4, AIDescription: "d", PrimaryEmotion: "joy", Energy: "medium"},
			{StartLine: 5, EndLine: 40, AIDescription: "d", PrimaryEmotion: "joy", Energy: "medium"},
		},
	}

	outcome := p.Process(context.Background(), testTrack(12), true, cached)

	if !outcome.Success {
		t.Fatalf("expected dry run to succeed, skip reason: %q", outcome.SkipReason)
	}
	if outcome.IndexedCount != 1 {
		t.Errorf("expected only the in-range segment to survive, got %d", outcome.IndexedCount)
	}
}

func TestProcess_AllSegmentsInvalidFailsTrack(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	cached := &segmenter.Result{
		Success: true,
		Segments: []segmenter.Segment{
			{StartLine: 20, EndLine: 40, AIDescription: "d", PrimaryEmotion: "joy"},
		},
	}

	outcome := p.Process(context.Background(), testTrack(12), true, cached)

	if outcome.Success {
		t.Error("expected track with no valid segments to fail")
	}
}

func TestProcess_CachedRateLimitPropagates(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	retryAfter := 90 * time.Second
	cached := &segmenter.Result{RetryAfter: &retryAfter}

	outcome := p.Process(context.Background(), testTrack(12), true, cached)

	if outcome.RetryAfter == nil {
		t.Fatal("expected the rate-limit signal to propagate through the track pipeline")
	}
	if *outcome.RetryAfter != retryAfter {
		t.Errorf("expected retry-after %s, got %s", retryAfter, *outcome.RetryAfter)
	}
}

func TestProcess_CachedFailureIsSegmentationFailed(t *testing.T) {
	p := New(testConfig(t), nil, nil, nil, nil, nil)

	cached := &segmenter.Result{Success: false}

	outcome := p.Process(context.Background(), testTrack(12), true, cached)

	if outcome.Success {
		t.Error("expected a cached segmentation failure to skip the track")
	}
	if !strings.Contains(outcome.SkipReason, "segmentation failed") {
		t.Errorf("expected a segmentation-failed skip reason, got %q", outcome.SkipReason)
	}
}
