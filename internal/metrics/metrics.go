// Package metrics records batch run counters on a private Prometheus registry
// and writes them in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match outcome labels.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Recorder holds the run metrics.
type Recorder struct {
	registry      *prometheus.Registry
	matches       *prometheus.CounterVec
	intervals     prometheus.Counter
	matchDuration prometheus.Histogram
	lastRun       prometheus.Gauge
}

// New builds a Recorder on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &Recorder{
		registry: reg,
		matches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchfeatures",
			Name:      "matches_total",
			Help:      "Matches handled by the extractor, by outcome.",
		}, []string{"status"}),
		intervals: auto.NewCounter(prometheus.CounterOpts{
			Namespace: "matchfeatures",
			Name:      "intervals_total",
			Help:      "Feature rows written.",
		}),
		matchDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchfeatures",
			Name:      "match_duration_seconds",
			Help:      "Wall time spent extracting one match.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchfeatures",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run.",
		}),
	}
}

// Match records the outcome of one match. Safe on a nil Recorder.
func (r *Recorder) Match(status string, intervals int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.matches.WithLabelValues(status).Inc()
	if status == StatusOK {
		r.intervals.Add(float64(intervals))
		r.matchDuration.Observe(elapsed.Seconds())
	}
}

// Finish stamps the run completion time.
func (r *Recorder) Finish(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes the metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
