package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yarnpull/internal/pullout"
)

const namespace = "pullout"

// Recorder counts analysis events in its own registry. It implements
// pullout.Observer and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	recordingsLoaded   prometheus.Counter
	recordingsRejected prometheus.Counter
	warnings           *prometheus.CounterVec
	seriesAnalyzed     prometheus.Counter
	seriesFailed       prometheus.Counter
	seriesDuration     prometheus.Histogram
	lastRun            prometheus.Gauge
}

var _ pullout.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		recordingsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_loaded_total",
			Help:      "Recordings normalized and added to a series.",
		}),
		recordingsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_rejected_total",
			Help:      "Recordings that failed to parse or normalize.",
		}),
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computation_warnings_total",
			Help:      "Per-recording derivations skipped, by reason.",
		}, []string{"reason"}),
		seriesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_analyzed_total",
			Help:      "Series that produced a summary.",
		}),
		seriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_failed_total",
			Help:      "Series without any usable recording.",
		}),
		seriesDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_duration_seconds",
			Help:      "Time spent analyzing one series.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the metrics file was last written.",
		}),
	}
}

// RecordingLoaded implements pullout.Observer
func (r *Recorder) RecordingLoaded() {
	r.recordingsLoaded.Inc()
}

// RecordingRejected implements pullout.Observer
func (r *Recorder) RecordingRejected() {
	r.recordingsRejected.Inc()
}

// ComputationWarning implements pullout.Observer
func (r *Recorder) ComputationWarning(reason pullout.Reason) {
	r.warnings.WithLabelValues(string(reason)).Inc()
}

// SeriesAnalyzed records a completed series and how long it took
func (r *Recorder) SeriesAnalyzed(d time.Duration) {
	r.seriesAnalyzed.Inc()
	r.seriesDuration.Observe(d.Seconds())
}

// SeriesFailed records a series that produced no results
func (r *Recorder) SeriesFailed() {
	r.seriesFailed.Inc()
}

// Gatherer exposes the registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	r.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
