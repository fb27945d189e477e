// Package importing ingests a YouTube playlist into the curated store:
// each video's title is parsed for artist/song, matched against synced
// lyrics, and recorded (or skipped with a reason).
package importing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/eventbus"
	"github.com/orinfm/pipeline/src/features/metrics"
)

// ErrAlreadyRunning is returned by Start when an import is already running.
var ErrAlreadyRunning = errors.New("import is already running")

const maxVideoTitleInEvent = 80

// CurrentVideo describes the video presently being processed.
type CurrentVideo struct {
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	VideoTitle string `json:"video_title"`
	VideoID    string `json:"video_id"`
}

// Progress tracks an import's cumulative counters.
type Progress struct {
	TotalVideos int      `json:"total_videos"`
	Processed   int      `json:"processed"`
	Imported    int      `json:"imported"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors"`
}

// Status is a snapshot of the runner's current state.
type Status struct {
	Running      bool          `json:"running"`
	TaskID       string        `json:"task_id,omitempty"`
	PlaylistName string        `json:"playlist_name,omitempty"`
	CurrentVideo *CurrentVideo `json:"current_video,omitempty"`
	Progress     Progress      `json:"progress"`
}

// Runner is the singleton playlist-import state machine.
type Runner struct {
	curated *curated.Store
	bus     *eventbus.Bus
	metrics *metrics.Registry

	running       atomic.Bool
	stopRequested atomic.Bool

	mu           sync.Mutex
	taskID       string
	playlistName string
	currentVideo *CurrentVideo
	progress     Progress
}

// New builds a Runner from its dependencies.
func New(store *curated.Store, bus *eventbus.Bus, reg *metrics.Registry) *Runner {
	return &Runner{curated: store, bus: bus, metrics: reg}
}

// Start launches a playlist import in the background and returns
// immediately; the video count arrives later via the import_started event.
func (r *Runner) Start(playlistURL, genre string, dryRun bool) (string, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", ErrAlreadyRunning
	}

	taskID := uuid.NewString()

	r.mu.Lock()
	r.taskID = taskID
	r.playlistName = ""
	r.currentVideo = nil
	r.progress = Progress{}
	r.mu.Unlock()
	r.stopRequested.Store(false)

	go r.run(context.Background(), taskID, playlistURL, genre, dryRun)

	return taskID, nil
}

// Stop requests the current import halt at its next safe checkpoint.
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
		PlaylistName: r.playlistName,
		CurrentVideo: r.currentVideo,
		Progress:     progress,
	}
}

func (r *Runner) run(ctx context.Context, taskID, playlistURL, genre string, dryRun bool) {
	started := time.Now()
	defer func() {
		r.running.Store(false)
		r.mu.Lock()
		r.currentVideo = nil
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.ImportRunning.Set(0)
			r.metrics.JobDuration.WithLabelValues("import").Observe(time.Since(started).Seconds())
		}
	}()
	if r.metrics != nil {
		r.metrics.ImportRunning.Set(1)
	}

	r.bus.Emit("import_fetching", map[string]any{"task_id": taskID, "playlist_url": playlistURL})

	title, _ := curated.GetPlaylistTitle(ctx, playlistURL)
	videos, err := curated.ExtractPlaylistVideos(ctx, playlistURL)
	if err != nil {
		r.bus.Emit("import_error", map[string]any{"task_id": taskID, "error": err.Error()})
		return
	}

	playlistName := title
	if playlistName == "" {
		playlistName = "Unknown Playlist"
	}
	r.mu.Lock()
	r.playlistName = playlistName
	r.progress.TotalVideos = len(videos)
	r.mu.Unlock()
	r.bus.Emit("import_started", map[string]any{
		"task_id": taskID, "playlist_name": playlistName, "total_videos": len(videos), "genre": genre,
	})

	var playlistID int64
	if !dryRun {
		playlistID, err = r.curated.UpsertPlaylist(playlistURL, genre, playlistName)
		if err != nil {
			r.bus.Emit("import_error", map[string]any{"task_id": taskID, "error": err.Error()})
			return
		}
	}

	for i, video := range videos {
		index := i + 1

		if r.stopRequested.Load() {
			r.bus.Emit("import_stopped", map[string]any{"task_id": taskID, "reason": "user_requested"})
			break
		}

		titleForEvent := video.Title
		if len(titleForEvent) > maxVideoTitleInEvent {
			titleForEvent = titleForEvent[:maxVideoTitleInEvent]
		}

		r.mu.Lock()
		r.currentVideo = &CurrentVideo{Index: index, Total: len(videos), VideoTitle: titleForEvent, VideoID: video.VideoID}
		r.mu.Unlock()
		r.bus.Emit("import_track_processing", map[string]any{
			"task_id": taskID, "index": index, "total": len(videos), "video_title": titleForEvent, "stage": "parsing",
		})

		artist, songName := curated.ParseVideoTitle(video.Title)
		if artist == "" && songName != "" {
			artist = strings.TrimSuffix(video.Uploader, " - Topic")
		}

		if artist == "" || songName == "" {
			r.skipVideo(taskID, playlistID, video, index, artist, songName, "parse_failed", dryRun)
			r.advance()
			continue
		}

		r.bus.Emit("import_track_processing", map[string]any{
			"task_id": taskID, "index": index, "total": len(videos), "video_title": titleForEvent,
			"artist": artist, "song_name": songName, "stage": "searching_lyrics",
		})

		lyrics, found := lookupSyncedLyrics(ctx, artist, songName, video.Duration)
		if !found {
			r.skipVideo(taskID, playlistID, video, index, artist, songName, "no_lyrics", dryRun)
			r.advance()
			continue
		}

		if dryRun {
			r.mu.Lock()
			r.progress.Imported++
			r.mu.Unlock()
			r.bus.Emit("import_track_imported", map[string]any{
				"task_id": taskID, "index": index, "artist": artist, "title": songName, "video_title": titleForEvent, "dry_run": true,
			})
			r.advance()
			continue
		}

		err := r.curated.InsertTrack(playlistID, video, artist, songName, "", lyrics, genre)
		switch {
		case err == nil:
			r.mu.Lock()
			r.progress.Imported++
			r.mu.Unlock()
			if r.metrics != nil {
				r.metrics.VideosImported.Inc()
			}
			r.bus.Emit("import_track_imported", map[string]any{
				"task_id": taskID, "index": index, "artist": artist, "title": songName, "video_title": titleForEvent,
			})
		case errors.Is(err, curated.ErrDuplicateVideo):
			r.skip(taskID, "Already imported (same video)", index, titleForEvent)
		case errors.Is(err, curated.ErrDuplicateSong):
			r.skip(taskID, "Already curated (different video)", index, titleForEvent)
		default:
			r.mu.Lock()
			r.progress.Errors = append(r.progress.Errors, err.Error())
			r.mu.Unlock()
			r.skip(taskID, err.Error(), index, titleForEvent)
		}

		r.advance()
	}

	r.mu.Lock()
	processed, imported, skipped := r.progress.Processed, r.progress.Imported, r.progress.Skipped
	r.mu.Unlock()
	r.bus.Emit("import_complete", map[string]any{
		"task_id": taskID, "playlist_name": playlistName, "playlist_id": playlistID,
		"total_videos": len(videos), "imported": imported, "skipped": skipped, "processed": processed,
	})
}

func (r *Runner) advance() {
	r.mu.Lock()
	r.progress.Processed++
	r.mu.Unlock()
}

func (r *Runner) skip(taskID, reason string, index int, videoTitle string) {
	r.mu.Lock()
	r.progress.Skipped++
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.VideosSkipped.WithLabelValues(reason).Inc()
	}
	r.bus.Emit("import_track_skipped", map[string]any{
		"task_id": taskID, "index": index, "video_title": videoTitle, "reason": reason,
	})
}

func (r *Runner) skipVideo(taskID string, playlistID int64, video curated.YouTubeVideo, index int, artist, title, reason string, dryRun bool) {
	if !dryRun {
		if err := r.curated.InsertSkipped(playlistID, video, artist, title, reason); err != nil {
			r.mu.Lock()
			r.progress.Errors = append(r.progress.Errors, err.Error())
			r.mu.Unlock()
		}
	}
	titleForEvent := video.Title
	if len(titleForEvent) > maxVideoTitleInEvent {
		titleForEvent = titleForEvent[:maxVideoTitleInEvent]
	}
	r.skip(taskID, reason, index, titleForEvent)
}
