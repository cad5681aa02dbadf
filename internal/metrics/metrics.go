package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "irgen"

// Run outcomes for ObserveRun.
const (
	RunOK     = "ok"
	RunFailed = "failed"
	RunEmpty  = "empty"
)

// Metrics holds the irgen collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	encodeTotal    *prometheus.CounterVec
	encodeDuration *prometheus.HistogramVec
	runsTotal      *prometheus.CounterVec
	lastRunCodes   *prometheus.GaugeVec
	lastRunSkipped *prometheus.GaugeVec
	lastRunTime    *prometheus.GaugeVec
}

// New creates a Metrics with a fresh registry. withRuntime adds the Go
// runtime and process collectors, which only make sense for a long-lived
// server.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		encodeTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "encode_total",
				Help:      "Records encoded, by protocol and outcome",
			},
			[]string{"protocol", "outcome"},
		),
		encodeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "encode_duration_seconds",
				Help:      "Time spent encoding a single record",
				Buckets:   []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 1e-2},
			},
			[]string{"protocol"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Generation runs, by outcome",
			},
			[]string{"outcome"},
		),
		lastRunCodes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_codes",
				Help:      "Commands generated by the last run for a device",
			},
			[]string{"device"},
		),
		lastRunSkipped: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_skipped",
				Help:      "Records skipped by the last run for a device",
			},
			[]string{"device"},
		),
		lastRunTime: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last run for a device",
			},
			[]string{"device"},
		),
	}
}

// ObserveEncode counts one encode attempt. outcome is "ok" or an
// ir.ErrorCode value.
func (m *Metrics) ObserveEncode(protocol, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.encodeTotal.WithLabelValues(protocol, outcome).Inc()
	m.encodeDuration.WithLabelValues(protocol).Observe(elapsed.Seconds())
}

// ObserveRun records the totals of a finished run.
func (m *Metrics) ObserveRun(device, outcome string, generated, skipped int, at time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.lastRunCodes.WithLabelValues(device).Set(float64(generated))
	m.lastRunSkipped.WithLabelValues(device).Set(float64(skipped))
	m.lastRunTime.WithLabelValues(device).Set(float64(at.Unix()))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node_exporter
// textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
