package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	staleDiscards prometheus.Counter
	upstream      *prometheus.HistogramVec
	seriesPoints  prometheus.Histogram
}

// New creates a Prometheus metrics recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder's collectors on reg. Tests pass a
// fresh prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chilipulse_evaluations_total",
				Help: "Completed outlier evaluations by city and verdict",
			},
			[]string{"city", "verdict"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chilipulse_evaluation_failures_total",
				Help: "Failed outlier evaluations by failure kind",
			},
			[]string{"kind"},
		),
		warnings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chilipulse_evaluation_warnings_total",
				Help: "Degraded evaluations by warning code",
			},
			[]string{"code"},
		),
		staleDiscards: f.NewCounter(
			prometheus.CounterOpts{
				Name: "chilipulse_stale_results_discarded_total",
				Help: "Evaluation results dropped because a newer submission superseded them",
			},
		),
		upstream: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chilipulse_upstream_request_seconds",
				Help:    "Latency of inference service calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "result"},
		),
		seriesPoints: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chilipulse_series_points",
				Help:    "Points in the merged series per evaluation",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// RecordEvaluation records a completed evaluation.
func (r *Recorder) RecordEvaluation(city, verdict string, points int) {
	r.evaluations.WithLabelValues(city, verdict).Inc()
	r.seriesPoints.Observe(float64(points))
}

// RecordFailure records a failed evaluation.
func (r *Recorder) RecordFailure(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

// RecordWarning records a degraded-but-rendered evaluation.
func (r *Recorder) RecordWarning(code string) {
	r.warnings.WithLabelValues(code).Inc()
}

// RecordStaleDiscard records a superseded result.
func (r *Recorder) RecordStaleDiscard() {
	r.staleDiscards.Inc()
}

// RecordUpstream records upstream call latency in seconds.
func (r *Recorder) RecordUpstream(endpoint string, ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.upstream.WithLabelValues(endpoint, result).Observe(seconds)
}
