// Package metrics exposes Prometheus instrumentation for the pipeline and
// import runners.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups every counter/gauge/histogram the runners report to.
type Registry struct {
	TracksProcessed *prometheus.CounterVec
	TracksSkipped   *prometheus.CounterVec
	SegmentsIndexed prometheus.Counter
	RateLimitEvents *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	PipelineRunning prometheus.Gauge
	ImportRunning   prometheus.Gauge
	VideosImported  prometheus.Counter
	VideosSkipped   *prometheus.CounterVec
}

// NewRegistry registers every collector against the default registry and
// returns the handles used by the runners.
func NewRegistry() *Registry {
	return &Registry{
		TracksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orin_tracks_processed_total",
			Help: "Tracks that completed the pipeline with at least one segment indexed.",
		}, []string{"source"}),
		TracksSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orin_tracks_skipped_total",
			Help: "Tracks skipped during the pipeline, labeled by reason.",
		}, []string{"reason"}),
		SegmentsIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orin_segments_indexed_total",
			Help: "Snippet vectors successfully upserted into the vector index.",
		}),
		RateLimitEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orin_rate_limit_events_total",
			Help: "Rate-limit responses observed from LLM providers.",
		}, []string{"provider"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orin_job_duration_seconds",
			Help:    "Wall-clock duration of a pipeline or import run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"job"}),
		PipelineRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orin_pipeline_running",
			Help: "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		ImportRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orin_import_running",
			Help: "1 while a playlist import is in progress, 0 otherwise.",
		}),
		VideosImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orin_videos_imported_total",
			Help: "Videos successfully added to the curated store.",
		}),
		VideosSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orin_videos_skipped_total",
			Help: "Videos skipped during playlist import, labeled by reason.",
		}, []string{"reason"}),
	}
}
