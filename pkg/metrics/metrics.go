// Package metrics records pipeline stage timings in a Prometheus registry.
// Builds are short-lived, so the registry is written to a node-exporter
// textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the build metrics.
type Registry struct {
	StageDuration *prometheus.HistogramVec
	StageRuns     *prometheus.CounterVec
	StageSkips    *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
	LastSuccess   *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every build metric registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hullform_stage_duration_seconds",
			Help:    "Stage execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
		},
		[]string{"stage"},
	)

	r.StageRuns = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullform_stage_runs_total",
			Help: "Total number of stages executed",
		},
		[]string{"stage"},
	)

	r.StageSkips = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullform_stage_skips_total",
			Help: "Total number of stages skipped because their artifact was up to date",
		},
		[]string{"stage"},
	)

	r.StageFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hullform_stage_failures_total",
			Help: "Total number of failed stage executions",
		},
		[]string{"stage"},
	)

	r.LastSuccess = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hullform_build_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build per boat and configuration",
		},
		[]string{"boat", "configuration"},
	)

	return r
}

// Ran records a completed stage.
func (r *Registry) Ran(stage string, d time.Duration) {
	r.StageRuns.WithLabelValues(stage).Inc()
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Skipped records a stage whose artifact was up to date.
func (r *Registry) Skipped(stage string) {
	r.StageSkips.WithLabelValues(stage).Inc()
}

// Failed records a stage that returned an error.
func (r *Registry) Failed(stage string) {
	r.StageFailures.WithLabelValues(stage).Inc()
}

// Built records a successful build at time t.
func (r *Registry) Built(boat, config string, t time.Time) {
	r.LastSuccess.WithLabelValues(boat, config).Set(float64(t.Unix()))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
