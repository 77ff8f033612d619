// Package metrics provides Prometheus instrumentation for seed runs.
//
// A CLI invocation is too short-lived to be scraped, so the collected
// values are written in the text exposition format to a file picked up by
// node_exporter's textfile collector:
//
//	SEED_METRICS_FILE=/var/lib/node_exporter/textfile/seedkit.prom seedkit run
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Directions used as label values.
const (
	DirectionApply  = "apply"
	DirectionRevert = "revert"
)

// Skip reasons used as label values.
const (
	SkipAlreadyApplied = "already_applied"
	SkipNoEntryPoint   = "no_entry_point"
	SkipFileMissing    = "file_missing"
)

// Metrics holds the seed counters on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	applied  prometheus.Counter
	reverted prometheus.Counter
	skipped  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	success  *prometheus.GaugeVec
	lastRun  *prometheus.GaugeVec
}

// New creates and registers the seed metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seedkit",
			Name:      "seeds_applied_total",
			Help:      "Seeds applied and recorded in the ledger.",
		}),
		reverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seedkit",
			Name:      "seeds_reverted_total",
			Help:      "Seeds reverted and removed from the ledger.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seedkit",
			Name:      "seeds_skipped_total",
			Help:      "Seeds skipped during a pass.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seedkit",
			Name:      "seed_duration_seconds",
			Help:      "Time spent inside a seed entry point.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 30, 120},
		}, []string{"direction"}),
		success: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "seedkit",
			Name:      "last_run_success",
			Help:      "1 if the last pass of a command succeeded, 0 otherwise.",
		}, []string{"command"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "seedkit",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last pass of a command finished.",
		}, []string{"command"}),
	}
	m.Registry.MustRegister(m.applied, m.reverted, m.skipped, m.duration, m.success, m.lastRun)
	return m
}

func (m *Metrics) Applied(d time.Duration) {
	if m == nil {
		return
	}
	m.applied.Inc()
	m.duration.WithLabelValues(DirectionApply).Observe(d.Seconds())
}

func (m *Metrics) Reverted(d time.Duration) {
	if m == nil {
		return
	}
	m.reverted.Inc()
	m.duration.WithLabelValues(DirectionRevert).Observe(d.Seconds())
}

func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

// Finished marks the end of a command's pass.
func (m *Metrics) Finished(command string, err error, at time.Time) {
	if m == nil {
		return
	}
	v := 1.0
	if err != nil {
		v = 0
	}
	m.success.WithLabelValues(command).Set(v)
	m.lastRun.WithLabelValues(command).Set(float64(at.Unix()))
}

// WriteFile writes the registry to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
