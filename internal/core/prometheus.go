package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation outcomes as Prometheus metrics:
// a duration histogram labeled by operation and a result counter labeled by
// operation and status.
type PrometheusMetricsRecorder struct {
	durations   *prometheus.HistogramVec
	results     *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	duplicates  prometheus.Counter
}

// NewPrometheusMetricsRecorder registers the recorder's collectors with reg.
// Passing prometheus.DefaultRegisterer wires the process-wide registry.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	rec := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskcore",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Duration of task service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskcore",
			Subsystem: "service",
			Name:      "operation_results_total",
			Help:      "Count of task service operation outcomes by status.",
		}, []string{"operation", "status"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskcore",
			Subsystem: "service",
			Name:      "resolutions_total",
			Help:      "Count of satisfied lookups by match strategy.",
		}, []string{"strategy"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskcore",
			Subsystem: "service",
			Name:      "duplicate_matches_total",
			Help:      "Count of lookups where one identifier matched several rows.",
		}),
	}
	for _, c := range []prometheus.Collector{rec.durations, rec.results, rec.resolutions, rec.duplicates} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// ObserveResolution implements ResolutionRecorder.
func (r *PrometheusMetricsRecorder) ObserveResolution(_ context.Context, strategy MatchStrategy, duplicate bool) {
	r.resolutions.WithLabelValues(string(strategy)).Inc()
	if duplicate {
		r.duplicates.Inc()
	}
}
