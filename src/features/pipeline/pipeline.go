// Package pipeline drives the end-to-end run that segments curated tracks
// and indexes them for search, as a singleton background state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/features/lrc"
	"github.com/orinfm/pipeline/src/features/metrics"
	"github.com/orinfm/pipeline/src/features/segmenter"
	"github.com/orinfm/pipeline/src/features/trackpipeline"
	"github.com/orinfm/pipeline/src/infra/ledger"
)

// ErrAlreadyRunning is returned by Start when a run is already in progress.
var ErrAlreadyRunning = errors.New("pipeline is already running")

// CurrentTrack describes the track presently being processed.
type CurrentTrack struct {
	TrackID int64  `json:"track_id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// Progress tracks a run's cumulative counters.
type Progress struct {
	Processed       int      `json:"processed"`
	Skipped         int      `json:"skipped"`
	Total           int      `json:"total"`
	SegmentsIndexed int      `json:"segments_indexed"`
	Errors          []string `json:"errors"`
}

// Status is a snapshot of the runner's current state.
type Status struct {
	Running      bool          `json:"running"`
	TaskID       string        `json:"task_id,omitempty"`
	CurrentTrack *CurrentTrack `json:"current_track,omitempty"`
	Progress     Progress      `json:"progress"`
}

// Options configure one pipeline run.
type Options struct {
	Source    string
	Genre     string
	Limit     *int
	DryRun    bool
	Reprocess bool
}

// Runner is the singleton pipeline state machine.
type Runner struct {
	cfg       *config.Manager
	curated   *curated.Store
	ledger    *ledger.Ledger
	processor *trackpipeline.Processor
	segmenter *segmenter.Segmenter
	bus       *eventbus.Bus
	metrics   *metrics.Registry

	running       atomic.Bool
	stopRequested atomic.Bool

	mu           sync.Mutex
	taskID       string
	currentTrack *CurrentTrack
	progress     Progress
}

// New builds a Runner from its dependencies.
func New(cfg *config.Manager, store *curated.Store, ldg *ledger.Ledger, processor *trackpipeline.Processor, seg *segmenter.Segmenter, bus *eventbus.Bus, reg *metrics.Registry) *Runner {
	return &Runner{cfg: cfg, curated: store, ledger: ldg, processor: processor, segmenter: seg, bus: bus, metrics: reg}
}

// Start launches a run in the background and returns immediately with its
// task id and the number of tracks it will attempt. Tracks already settled
// in the ledger are excluded from the candidate list unless Reprocess is
// set, so the returned total is exactly what the run will touch.
func (r *Runner) Start(ctx context.Context, opts Options) (string, int, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", 0, ErrAlreadyRunning
	}

	var settled map[int64]bool
	if !opts.Reprocess {
		ids, err := r.ledger.GetSettledIDs(opts.Source)
		if err != nil {
			r.running.Store(false)
			return "", 0, fmt.Errorf("loading settled track ids: %w", err)
		}
		settled = ids
	}

	tracks, err := r.loadTracks(opts, settled)
	if err != nil {
		r.running.Store(false)
		return "", 0, fmt.Errorf("loading candidate tracks: %w", err)
	}

	taskID := uuid.NewString()
	total := len(tracks)

	r.mu.Lock()
	r.taskID = taskID
	r.currentTrack = nil
	r.progress = Progress{Total: total}
	r.mu.Unlock()
	r.stopRequested.Store(false)

	r.bus.Emit("pipeline_started", map[string]any{"task_id": taskID, "source": opts.Source, "total_tracks": total, "dry_run": opts.DryRun})

	go r.run(context.Background(), taskID, opts, tracks)

	return taskID, total, nil
}

// Stop requests the current run halt at its next safe checkpoint.
func (r *Runner) Stop() bool {
	if !r.running.Load() {
		return false
	}
	r.stopRequested.Store(true)
	return true
}

// GetStatus snapshots the runner's current state.
func (r *Runner) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := r.progress.Errors
	if len(errs) > 10 {
		errs = errs[len(errs)-10:]
	}
	progress := r.progress
	progress.Errors = errs

	return Status{
		Running:      r.running.Load(),
		TaskID:       r.taskID,
		CurrentTrack: r.currentTrack,
		Progress:     progress,
	}
}

func (r *Runner) loadTracks(opts Options, processedIDs map[int64]bool) ([]curated.Track, error) {
	switch opts.Source {
	case "curated":
		return r.curated.GetCuratedTracks(opts.Genre, opts.Limit, 0, processedIDs)
	default:
		return nil, nil // lrclib ingestion is not implemented
	}
}

func (r *Runner) run(ctx context.Context, taskID string, opts Options, tracks []curated.Track) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("pipeline run failed", "task_id", taskID, "panic", rec)
			r.bus.Emit("pipeline_error", map[string]any{"task_id": taskID, "error": fmt.Sprint(rec)})
		}
		r.running.Store(false)
		r.mu.Lock()
		r.currentTrack = nil
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.PipelineRunning.Set(0)
			r.metrics.JobDuration.WithLabelValues("pipeline").Observe(time.Since(started).Seconds())
		}
	}()
	if r.metrics != nil {
		r.metrics.PipelineRunning.Set(1)
	}

	cache, stopped := r.runBatchSegmentation(ctx, taskID, opts, tracks)
	if stopped {
		return
	}

	r.runPerTrack(ctx, taskID, opts, tracks, cache)
}

// runBatchSegmentation performs Phase 1: pre-parsing and LLM segmentation in
// chunks. A provider rate-limit terminates the entire run immediately,
// never just this phase.
func (r *Runner) runBatchSegmentation(ctx context.Context, taskID string, opts Options, tracks []curated.Track) (map[int64]segmenter.Result, bool) {
	cache := map[int64]segmenter.Result{}

	if !r.cfg.Get().Segmenter.EnableBatch || len(tracks) == 0 {
		return cache, false
	}

	batchSize := r.cfg.Get().Segmenter.BatchSizeLLM
	if batchSize < 1 {
		batchSize = 1
	}

	r.bus.Emit("batch_segmentation_started", map[string]any{"task_id": taskID, "total_tracks": len(tracks), "batch_size": batchSize})

	batchNum := 0
	for start := 0; start < len(tracks); start += batchSize {
		end := start + batchSize
		if end > len(tracks) {
			end = len(tracks)
		}
		chunk := tracks[start:end]
		batchNum++

		var songs []segmenter.Song
		for _, t := range chunk {
			parsed := lrc.Parse(t.SyncedLyrics)
			if parsed.TotalLines() < 4 {
				continue
			}
			songs = append(songs, segmenter.Song{
				TrackID: t.ID, Title: t.Name, Artist: t.ArtistName, Lyrics: parsed.PlainLyrics(),
			})
		}
		if len(songs) == 0 {
			continue
		}

		result := r.segmenter.BatchSegment(ctx, songs)
		if result.RetryAfter != nil {
			if r.metrics != nil {
				r.metrics.RateLimitEvents.WithLabelValues(result.Provider).Inc()
			}
			r.bus.Emit("rate_limited", map[string]any{
				"task_id":             taskID,
				"retry_after_seconds": result.RetryAfter.Seconds(),
			})
			return cache, true
		}

		for _, songResult := range result.SongResults {
			cache[songResult.TrackID] = segmenter.Result{
				Success:  songResult.Err == nil,
				Segments: songResult.Segments,
				Genre:    songResult.Genre,
				Provider: "batch",
				Err:      songResult.Err,
			}
		}

		r.bus.Emit("batch_segmentation_progress", map[string]any{
			"task_id": taskID, "batch": batchNum, "tracks_in_batch": len(songs), "cached_total": len(cache),
		})

		if r.stopRequested.Load() {
			break
		}
	}

	r.bus.Emit("batch_segmentation_complete", map[string]any{"task_id": taskID, "segmented_total": len(cache)})

	return cache, false
}

// processTrack invokes the track pipeline, converting a panic into a
// per-track fatal outcome so one bad track cannot take down the whole run.
func (r *Runner) processTrack(ctx context.Context, track curated.Track, dryRun bool, cached *segmenter.Result) (outcome trackpipeline.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("track processing panicked", "track_id", track.ID, "panic", rec)
			outcome = trackpipeline.Outcome{
				SkipKind:   "fatal",
				SkipReason: fmt.Sprintf("fatal: %v", rec),
				Errors:     []string{fmt.Sprintf("fatal: %v", rec)},
			}
		}
	}()
	return r.processor.Process(ctx, track, dryRun, cached)
}

func (r *Runner) runPerTrack(ctx context.Context, taskID string, opts Options, tracks []curated.Track, cache map[int64]segmenter.Result) {
	for _, track := range tracks {
		if r.stopRequested.Load() {
			r.bus.Emit("pipeline_stopped", map[string]any{"task_id": taskID, "reason": "user_requested"})
			return
		}

		r.mu.Lock()
		r.currentTrack = &CurrentTrack{TrackID: track.ID, Title: track.Name, Artist: track.ArtistName}
		r.mu.Unlock()
		r.bus.Emit("track_start", map[string]any{"task_id": taskID, "track_id": track.ID, "title": track.Name, "artist": track.ArtistName})

		var cached *segmenter.Result
		if c, ok := cache[track.ID]; ok {
			cached = &c
		}

		outcome := r.processTrack(ctx, track, opts.DryRun, cached)

		r.mu.Lock()
		r.progress.Errors = append(r.progress.Errors, outcome.Errors...)
		r.mu.Unlock()

		switch {
		case outcome.RetryAfter != nil:
			if r.metrics != nil {
				r.metrics.RateLimitEvents.WithLabelValues("segmenter").Inc()
			}
			r.bus.Emit("rate_limited", map[string]any{"task_id": taskID, "retry_after_seconds": outcome.RetryAfter.Seconds()})
			return
		case outcome.Success && outcome.IndexedCount > 0:
			r.mu.Lock()
			r.progress.Processed++
			r.progress.SegmentsIndexed += outcome.IndexedCount
			r.mu.Unlock()
			if !opts.DryRun {
				if err := r.ledger.MarkProcessed(opts.Source, track.ID, ledger.StatusSuccess, ""); err != nil {
					slog.Error("failed to mark track processed", "track_id", track.ID, "error", err)
				}
				if r.metrics != nil {
					r.metrics.TracksProcessed.WithLabelValues(opts.Source).Inc()
					r.metrics.SegmentsIndexed.Add(float64(outcome.IndexedCount))
				}
			}
			r.bus.Emit("track_complete", map[string]any{
				"task_id": taskID, "track_id": track.ID, "segments_indexed": outcome.IndexedCount, "dry_run": opts.DryRun,
			})
		default:
			reason := outcome.SkipReason
			if reason == "" && len(outcome.Errors) > 0 {
				reason = strings.Join(outcome.Errors, "; ")
			}
			if reason == "" {
				reason = "unknown"
			}
			kind := outcome.SkipKind
			if kind == "" {
				kind = "track_error"
			}
			r.mu.Lock()
			r.progress.Skipped++
			r.mu.Unlock()
			if r.metrics != nil {
				r.metrics.TracksSkipped.WithLabelValues(kind).Inc()
			}
			if !opts.DryRun {
				if err := r.ledger.MarkProcessed(opts.Source, track.ID, ledger.StatusFailed, reason); err != nil {
					slog.Error("failed to mark track failed", "track_id", track.ID, "error", err)
				}
			}
			r.bus.Emit("track_error", map[string]any{"task_id": taskID, "track_id": track.ID, "kind": kind, "errors": []string{reason}})
		}
	}

	r.mu.Lock()
	processed, skipped, indexed := r.progress.Processed, r.progress.Skipped, r.progress.SegmentsIndexed
	r.mu.Unlock()
	r.bus.Emit("pipeline_complete", map[string]any{
		"task_id": taskID, "processed": processed, "skipped": skipped, "segments_indexed": indexed,
	})
}

