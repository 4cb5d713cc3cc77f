// Package metrics defines the Prometheus collectors recorded by a word
// tracker run and exports them for the node-exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for a run. Each instance owns its
// registry so independent runs (and tests) never collide.
type Metrics struct {
	registry         *prometheus.Registry
	LinesParsedTotal *prometheus.CounterVec
	TokensTotal      prometheus.Counter
	WordsAddedTotal  prometheus.Counter
	IndexSize        prometheus.Gauge
	IndexHeight      prometheus.Gauge
	SnapshotOpsTotal *prometheus.CounterVec
	SnapshotBytes    *prometheus.GaugeVec
	ReportDuration   *prometheus.HistogramVec
	RunsTotal        *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LinesParsedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordtracker_lines_parsed_total",
				Help: "Lines read from input sources.",
			},
			[]string{"source"},
		),
		TokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_tokens_total",
				Help: "Words folded into the index, including repeats.",
			},
		),
		WordsAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordtracker_words_added_total",
				Help: "Distinct words inserted into the index.",
			},
		),
		IndexSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordtracker_index_size",
				Help: "Number of distinct words in the index.",
			},
		),
		IndexHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordtracker_index_height",
				Help: "Height of the index tree.",
			},
		),
		SnapshotOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordtracker_snapshot_operations_total",
				Help: "Snapshot loads and saves by outcome.",
			},
			[]string{"op", "status"},
		),
		SnapshotBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wordtracker_snapshot_bytes",
				Help: "Encoded size of the last snapshot loaded or saved.",
			},
			[]string{"op"},
		),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordtracker_report_duration_seconds",
				Help:    "Time spent rendering a report.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"mode"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordtracker_runs_total",
				Help: "Tracker runs by result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.LinesParsedTotal,
		m.TokensTotal,
		m.WordsAddedTotal,
		m.IndexSize,
		m.IndexHeight,
		m.SnapshotOpsTotal,
		m.SnapshotBytes,
		m.ReportDuration,
		m.RunsTotal,
	)

	return m
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
