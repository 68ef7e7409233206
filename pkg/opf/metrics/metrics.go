// Package metrics provides Prometheus metrics for pattern parsing
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openpatterns/opf/pkg/opf/diag"
	"github.com/openpatterns/opf/pkg/opf/pattern"
)

// Parse outcomes used as the status label
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// Metrics holds the collectors of one registry. A nil *Metrics records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ParsesTotal      *prometheus.CounterVec
	DiagnosticsTotal *prometheus.CounterVec
	ParseDuration    prometheus.Histogram
	PiecesPerPattern prometheus.Histogram
	VerticesTotal    prometheus.Counter
}

// New registers the parse metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ParsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opf_parses_total",
				Help: "Total number of parsed drawings",
			},
			[]string{"status"},
		),
		DiagnosticsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opf_diagnostics_total",
				Help: "Total number of diagnostics raised while parsing",
			},
			[]string{"severity"},
		),
		ParseDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "opf_parse_duration_seconds",
				Help:    "Time taken to translate one drawing",
				Buckets: prometheus.DefBuckets,
			},
		),
		PiecesPerPattern: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "opf_pattern_pieces",
				Help:    "Number of pieces per translated pattern",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		VerticesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "opf_vertices_total",
				Help: "Total number of unique vertices across translated pieces",
			},
		),
	}
}

// ObserveParse records one parse. f is nil when the parse failed.
func (m *Metrics) ObserveParse(status string, f *pattern.Format, diags []diag.Diagnostic, d time.Duration) {
	if m == nil {
		return
	}
	m.ParsesTotal.WithLabelValues(status).Inc()
	m.ParseDuration.Observe(d.Seconds())
	for _, dg := range diags {
		m.DiagnosticsTotal.WithLabelValues(dg.Severity.String()).Inc()
	}
	if f == nil {
		return
	}
	m.PiecesPerPattern.Observe(float64(len(f.Pieces)))
	for _, p := range f.Pieces {
		m.VerticesTotal.Add(float64(p.Vertices.Len()))
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
