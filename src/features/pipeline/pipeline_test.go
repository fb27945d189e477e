package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/orinfm/pipeline/src/features/audio"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/embedding"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/features/segmenter"
	"github.com/orinfm/pipeline/src/features/trackpipeline"
	"github.com/orinfm/pipeline/src/infra/ledger"
	"github.com/spf13/viper"
)

// newTestRunner builds a Runner against temp databases and an empty LLM
// provider list, so every track fails segmentation immediately without any
// network or subprocess work.
func newTestRunner(t *testing.T) (*Runner, *eventbus.Bus, *ledger.Ledger, *curated.Store) {
	t.Helper()
	dir := t.TempDir()

	v := viper.New()
	v.Set("paths.work_dir", dir)
	v.Set("paths.skipped_log_path", filepath.Join(dir, "skipped_songs.jsonl"))
	v.Set("audio.duration_tolerance", 2.0)
	v.Set("segmenter.providers", []string{})
	v.Set("segmenter.enable_batch_segmentation", false)
	v.Set("segmenter.max_retries", 1)
	v.Set("segmenter.retry_delay_seconds", 0.0)
	cfg := config.NewManager(v)

	store, err := curated.Open(filepath.Join(dir, "curated.db"))
	if err != nil {
		t.Fatalf("opening curated store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ldg, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	t.Cleanup(func() { ldg.Close() })

	bus := eventbus.New()
	seg := segmenter.New(cfg)
	processor := trackpipeline.New(cfg, audio.New(cfg), seg, embedding.New(cfg), nil, nil)
	runner := New(cfg, store, ldg, processor, seg, bus, nil)
	return runner, bus, ldg, store
}

const lrcFixture = "[00:01.00]one\n[00:05.00]two\n[00:10.00]three\n[00:15.00]four\n[00:20.00]five\n[00:25.00]six"

func seedTracks(t *testing.T, store *curated.Store, n int) {
	t.Helper()
	playlistID, err := store.UpsertPlaylist("https://youtube.com/playlist?list=test", "pop", "Test Playlist")
	if err != nil {
		t.Fatalf("upserting playlist: %v", err)
	}
	for i := 1; i <= n; i++ {
		video := curated.YouTubeVideo{
			VideoID: fmt.Sprintf("vid%d", i), Title: fmt.Sprintf("Artist %d - Song %d", i, i), Duration: 60,
		}
		err := store.InsertTrack(playlistID, video, fmt.Sprintf("Artist %d", i), fmt.Sprintf("Song %d", i), "", lrcFixture, "pop")
		if err != nil {
			t.Fatalf("inserting track %d: %v", i, err)
		}
	}
}

func drainUntilTerminal(t *testing.T, ch chan eventbus.Event) []eventbus.Event {
	t.Helper()
	var events []eventbus.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt := <-ch:
			events = append(events, evt)
			switch evt.Type {
			case "pipeline_complete", "pipeline_stopped", "pipeline_error":
				return events
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a terminal event; got %d events so far", len(events))
		}
	}
}

func waitIdle(t *testing.T, r *Runner) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !r.GetStatus().Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("runner never returned to idle")
}

func TestStart_EmitsOrderedEventsAndCompletes(t *testing.T) {
	runner, bus, _, store := newTestRunner(t)
	seedTracks(t, store, 2)

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	_, total, err := runner.Start(context.Background(), Options{Source: "curated", DryRun: true})
	if err != nil {
		t.Fatalf("starting pipeline: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}

	events := drainUntilTerminal(t, ch)

	if events[0].Type != "pipeline_started" {
		t.Errorf("expected pipeline_started first, got %q", events[0].Type)
	}
	if last := events[len(events)-1].Type; last != "pipeline_complete" {
		t.Errorf("expected pipeline_complete last, got %q", last)
	}

	starts, terminals := 0, 0
	for _, evt := range events {
		switch evt.Type {
		case "track_start":
			starts++
			if starts != terminals+1 {
				t.Error("track_start emitted before the previous track's terminal event")
			}
		case "track_complete", "track_error":
			terminals++
		}
	}
	if starts != 2 || terminals != 2 {
		t.Errorf("expected 2 track_start and 2 track terminal events, got %d/%d", starts, terminals)
	}
}

func TestStart_SucceedsAgainAfterTerminalEvent(t *testing.T) {
	runner, bus, _, store := newTestRunner(t)
	seedTracks(t, store, 1)

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	if _, _, err := runner.Start(context.Background(), Options{Source: "curated", DryRun: true}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	drainUntilTerminal(t, ch)
	waitIdle(t, runner)

	if _, _, err := runner.Start(context.Background(), Options{Source: "curated", DryRun: true}); err != nil {
		t.Fatalf("expected a second start after completion to succeed, got: %v", err)
	}
	drainUntilTerminal(t, ch)
	waitIdle(t, runner)
}

func TestStart_DryRunLeavesLedgerUntouched(t *testing.T) {
	runner, bus, ldg, store := newTestRunner(t)
	seedTracks(t, store, 2)

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	if _, _, err := runner.Start(context.Background(), Options{Source: "curated", DryRun: true}); err != nil {
		t.Fatalf("starting pipeline: %v", err)
	}
	drainUntilTerminal(t, ch)
	waitIdle(t, runner)

	count, err := ldg.GetProcessedCount("", "")
	if err != nil {
		t.Fatalf("counting ledger rows: %v", err)
	}
	if count != 0 {
		t.Errorf("expected dry run to write no ledger rows, found %d", count)
	}
}

func TestStart_ExcludesSettledTracksUnlessReprocess(t *testing.T) {
	runner, bus, ldg, store := newTestRunner(t)
	seedTracks(t, store, 2)

	if err := ldg.MarkProcessed("curated", 1, ledger.StatusSuccess, ""); err != nil {
		t.Fatalf("seeding ledger: %v", err)
	}

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	_, total, err := runner.Start(context.Background(), Options{Source: "curated", DryRun: true})
	if err != nil {
		t.Fatalf("starting pipeline: %v", err)
	}
	if total != 1 {
		t.Errorf("expected the settled track to be excluded, got total %d", total)
	}
	drainUntilTerminal(t, ch)
	waitIdle(t, runner)

	_, total, err = runner.Start(context.Background(), Options{Source: "curated", DryRun: true, Reprocess: true})
	if err != nil {
		t.Fatalf("starting reprocess run: %v", err)
	}
	if total != 2 {
		t.Errorf("expected reprocess to include every track, got total %d", total)
	}
	drainUntilTerminal(t, ch)
	waitIdle(t, runner)
}

func TestStop_IdleReturnsFalse(t *testing.T) {
	runner, _, _, _ := newTestRunner(t)

	if runner.Stop() {
		t.Error("expected Stop on an idle runner to return false")
	}
}

func TestStart_UnknownSourceCompletesEmpty(t *testing.T) {
	runner, bus, _, _ := newTestRunner(t)

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	_, total, err := runner.Start(context.Background(), Options{Source: "lrclib", DryRun: true})
	if err != nil {
		t.Fatalf("starting pipeline: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0 tracks for the reserved lrclib source, got %d", total)
	}

	events := drainUntilTerminal(t, ch)
	if last := events[len(events)-1].Type; last != "pipeline_complete" {
		t.Errorf("expected an empty run to end with pipeline_complete, got %q", last)
	}
	waitIdle(t, runner)
}
