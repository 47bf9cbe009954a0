package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_ingest_api_calls_total",
		Help: "Total number of remote API calls, including retries",
	}, []string{"endpoint"})

	videosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_ingest_videos_total",
		Help: "Total number of processed videos by outcome",
	}, []string{"outcome"})

	snapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "yt_ingest_snapshots_total",
		Help: "Total number of statistics snapshots appended",
	})

	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_ingest_runs_total",
		Help: "Total number of pipeline runs by final stage",
	}, []string{"stage"})

	runDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "yt_ingest_run_duration_seconds",
		Help:    "Duration of pipeline runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	storedVideos = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "yt_ingest_stored_videos",
		Help: "Number of videos in the store",
	})
)

func init() {
	prometheus.MustRegister(apiCallsTotal)
	prometheus.MustRegister(videosTotal)
	prometheus.MustRegister(snapshotsTotal)
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDurationSeconds)
	prometheus.MustRegister(storedVideos)
}

// RecordAPICall counts one remote call against endpoint
func RecordAPICall(endpoint string) {
	apiCallsTotal.WithLabelValues(endpoint).Inc()
}

// RecordVideo counts a processed video; outcome is saved, skipped or failed
func RecordVideo(outcome string) {
	videosTotal.WithLabelValues(outcome).Inc()
}

// RecordSnapshot counts an appended snapshot
func RecordSnapshot() {
	snapshotsTotal.Inc()
}

// RecordRun records a finished pipeline run
func RecordRun(stage string, duration time.Duration) {
	runsTotal.WithLabelValues(stage).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// SetStoredVideos updates the stored videos gauge
func SetStoredVideos(count int64) {
	storedVideos.Set(float64(count))
}
