// Package trackpipeline runs one curated track end to end: acquire audio,
// segment its lyrics, slice and upload each segment, embed its description,
// and index the result for semantic search.
package trackpipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orinfm/pipeline/src/features/audio"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/curated"
	"github.com/orinfm/pipeline/src/features/embedding"
	"github.com/orinfm/pipeline/src/features/lrc"
	"github.com/orinfm/pipeline/src/features/segmenter"
	"github.com/orinfm/pipeline/src/infra/blobstore"
	"github.com/orinfm/pipeline/src/infra/vectorindex"
)

const minLyricLines = 4

// Outcome is the result of running the pipeline against one track.
// SkipKind is the coarse error category (too_few_lines, download_failed,
// version_mismatch, segmentation_failed, rate_limited, fatal) surfaced in
// events and metrics; SkipReason carries the human-readable detail.
type Outcome struct {
	Success          bool
	SkipKind         string
	SkipReason       string
	IndexedCount     int
	Errors           []string
	RetryAfter       *time.Duration
	SegmentationData map[string]any // populated only on a dry run
}

// Processor wires together every stage a track passes through.
type Processor struct {
	cfg       *config.Manager
	acquirer  *audio.Acquirer
	segmenter *segmenter.Segmenter
	embedder  *embedding.Embedder
	index     *vectorindex.Gateway
	blobs     *blobstore.Gateway // nil when the blob store isn't configured
}

// New builds a Processor from its component gateways. blobs may be nil.
func New(cfg *config.Manager, acquirer *audio.Acquirer, seg *segmenter.Segmenter, embedder *embedding.Embedder, index *vectorindex.Gateway, blobs *blobstore.Gateway) *Processor {
	return &Processor{cfg: cfg, acquirer: acquirer, segmenter: seg, embedder: embedder, index: index, blobs: blobs}
}

// Process runs one track through the full pipeline. cachedSegmentation, if
// non-nil, comes from an earlier batch segmentation call and is used
// instead of calling the LLM again.
func (p *Processor) Process(ctx context.Context, track curated.Track, dryRun bool, cachedSegmentation *segmenter.Result) Outcome {
	parsed := lrc.Parse(track.SyncedLyrics)
	if parsed.TotalLines() < minLyricLines {
		p.logSkipped(track, 0, 0, "too_few_lines", "", "")
		return Outcome{SkipKind: "too_few_lines", SkipReason: fmt.Sprintf("too few lyric lines (%d)", parsed.TotalLines())}
	}

	var audioFile string
	var audioDuration float64
	var ytURL string

	if !dryRun {
		dl := p.acquirer.Acquire(ctx, track.ArtistName, track.Name, track.Duration)
		if !dl.Success {
			p.logSkipped(track, 0, 0, "download_failed", "", fmt.Sprint(dl.Err))
			return Outcome{SkipKind: "download_failed", SkipReason: fmt.Sprintf("audio acquisition failed: %v", dl.Err)}
		}
		audioFile, audioDuration, ytURL = dl.FilePath, dl.Duration, dl.YTURL
		defer audio.CleanupFile(audioFile)

		ok, drift := audio.VersionCheck(parsed.Duration(), audioDuration, p.cfg.Get().Audio.DurationTolerance)
		if !ok {
			p.logSkipped(track, audioDuration, drift, "version_mismatch", ytURL, "")
			return Outcome{SkipKind: "version_mismatch", SkipReason: fmt.Sprintf("duration drift %.1fs exceeds tolerance", drift)}
		}
	}

	segResult, _ := p.segment(ctx, track, parsed, cachedSegmentation)
	if segResult.RetryAfter != nil {
		return Outcome{RetryAfter: segResult.RetryAfter, SkipKind: "rate_limited", SkipReason: fmt.Sprintf("rate limited: retry in %s", segResult.RetryAfter)}
	}
	if !segResult.Success {
		p.logSkipped(track, audioDuration, 0, "segmentation_failed", ytURL, fmt.Sprint(segResult.Err))
		return Outcome{SkipKind: "segmentation_failed", SkipReason: fmt.Sprintf("segmentation failed: %v", segResult.Err)}
	}

	validSegments, diagnostics := segmenter.ValidateSegments(segResult.Segments, parsed.TotalLines())
	for _, d := range diagnostics {
		slog.Warn("segment rejected", "track_id", track.ID, "reason", d)
	}
	if len(validSegments) == 0 {
		p.logSkipped(track, audioDuration, 0, "segmentation_failed", ytURL, "no valid segments after validation")
		return Outcome{SkipKind: "segmentation_failed", SkipReason: "no valid segments after validation"}
	}

	if dryRun {
		return Outcome{
			Success:          true,
			IndexedCount:     len(validSegments),
			SegmentationData: buildSegmentationData(track, parsed, segResult, validSegments),
		}
	}

	vectors, payloads, errs := p.sliceAndEmbed(ctx, track, parsed, audioFile, ytURL, validSegments, segResult.Genre)

	outcome := Outcome{Errors: errs}
	if len(vectors) > 0 {
		result := p.index.Upsert(ctx, vectors, payloads)
		if !result.Success {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("indexing failed: %v", result.Err))
		}
		outcome.IndexedCount = result.IndexedCount
		outcome.Success = result.IndexedCount > 0
	}

	return outcome
}

func (p *Processor) segment(ctx context.Context, track curated.Track, parsed lrc.ParsedLRC, cached *segmenter.Result) (segmenter.Result, bool) {
	if cached != nil {
		return *cached, true
	}
	return p.segmenter.SegmentOne(ctx, parsed.PlainLyrics(), track.Name, track.ArtistName), false
}

func (p *Processor) sliceAndEmbed(ctx context.Context, track curated.Track, parsed lrc.ParsedLRC, audioFile, ytURL string, segments []segmenter.Segment, genre string) ([][]float32, []vectorindex.SnippetPayload, []string) {
	var vectors [][]float32
	var payloads []vectorindex.SnippetPayload
	var errs []string

	workDir := p.cfg.Get().Paths.WorkDir

	for _, seg := range segments {
		if ok, msg := lrc.ValidateSegmentLines(parsed, seg.StartLine, seg.EndLine); !ok {
			errs = append(errs, msg)
			continue
		}

		start, end, ok := parsed.SegmentTimespan(seg.StartLine, seg.EndLine)
		if !ok {
			errs = append(errs, "could not compute segment timespan")
			continue
		}

		snippetID := vectorindex.GenerateSnippetID()
		sliceResult := audio.Slice(audioFile, start, end, snippetID, workDir, p.cfg.Get().Audio.SliceBitrateKbps)
		if !sliceResult.Success {
			errs = append(errs, fmt.Sprintf("slicing segment failed: %v", sliceResult.Err))
			continue
		}

		snippetURL := sliceResult.FilePath
		uploaded := false
		if p.blobs != nil {
			upload := p.blobs.Upload(ctx, sliceResult.FilePath, snippetID, "audio/opus")
			if !upload.Success {
				errs = append(errs, fmt.Sprintf("uploading segment failed: %v", upload.Err))
				audio.CleanupFile(sliceResult.FilePath)
				continue
			}
			snippetURL = upload.URL
			uploaded = true
			audio.CleanupFile(sliceResult.FilePath)
		}

		embedResult := p.embedder.EmbedText(ctx, seg.AIDescription)
		if !embedResult.Success {
			errs = append(errs, fmt.Sprintf("embedding segment failed: %v", embedResult.Err))
			if uploaded {
				if err := p.blobs.Delete(ctx, snippetID, ""); err != nil {
					slog.Warn("failed to clean up orphaned snippet blob", "snippet_id", snippetID, "error", err)
				}
			}
			continue
		}

		vectors = append(vectors, embedResult.Vector)
		payloads = append(payloads, vectorindex.SnippetPayload{
			SnippetID:        snippetID,
			SongTitle:        track.Name,
			Artist:           track.ArtistName,
			Album:            track.AlbumName,
			Lyrics:           seg.Lyrics,
			AIDescription:    seg.AIDescription,
			SnippetURL:       snippetURL,
			StartTime:        start,
			EndTime:          end,
			PrimaryEmotion:   seg.PrimaryEmotion,
			SecondaryEmotion: seg.SecondaryEmotion,
			Energy:           seg.Energy,
			Tone:             seg.Tone,
			Genre:            genre,
			TrackID:          track.ID,
		})
	}

	return vectors, payloads, errs
}

func (p *Processor) logSkipped(track curated.Track, audioDuration, drift float64, reason, ytURL, errMsg string) {
	err := audio.LogSkipped(p.cfg.Get().Paths.SkippedLogPath, audio.SkippedEntry{
		TrackID: track.ID, Title: track.Name, Artist: track.ArtistName,
		LRCDuration: lrc.Parse(track.SyncedLyrics).Duration(), AudioDuration: audioDuration,
		Drift: drift, Reason: reason, YTURL: ytURL, Error: errMsg,
	})
	if err != nil {
		slog.Error("failed to write skipped-song log entry", "track_id", track.ID, "error", err)
	}
}

func buildSegmentationData(track curated.Track, parsed lrc.ParsedLRC, segResult segmenter.Result, segments []segmenter.Segment) map[string]any {
	return map[string]any{
		"track_id":    track.ID,
		"title":       track.Name,
		"artist":      track.ArtistName,
		"album":       track.AlbumName,
		"duration":    track.Duration,
		"total_lines": parsed.TotalLines(),
		"genre":       segResult.Genre,
		"provider":    segResult.Provider,
		"segments":    segments,
	}
}
