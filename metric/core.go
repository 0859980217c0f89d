package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lawgraph"

// Metrics contains the core pipeline metrics.
type Metrics struct {
	// CyclesTotal counts processing cycles by outcome.
	CyclesTotal *prometheus.CounterVec

	// CycleDuration observes end-to-end cycle time in seconds.
	CycleDuration prometheus.Histogram

	// DocumentsFetched counts documents pulled from the source.
	DocumentsFetched prometheus.Counter

	// DocumentsProcessed counts documents whose flags merged after commit.
	DocumentsProcessed prometheus.Counter

	// DocumentsSkipped counts documents excluded for a missing root field.
	DocumentsSkipped prometheus.Counter

	// EntitiesExtracted counts extracted entities by type.
	EntitiesExtracted *prometheus.CounterVec

	// CommitFailures counts failed transaction commits.
	CommitFailures prometheus.Counter

	// FlagUpdateFailures counts per-document flag merges that failed.
	FlagUpdateFailures prometheus.Counter

	// BatchNodes observes set-node count per committed transaction.
	BatchNodes prometheus.Histogram

	// MonitorRunning reports whether the polling loop is active.
	MonitorRunning prometheus.Gauge

	// SourceUp and StoreUp report last-known dependency reachability.
	SourceUp prometheus.Gauge
	StoreUp  prometheus.Gauge
}

// NewMetrics creates the core pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "cycles_total",
				Help:      "Processing cycles by outcome (success, failure, empty)",
			},
			[]string{"outcome"},
		),
		CycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "cycle_duration_seconds",
				Help:      "Processing cycle duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DocumentsFetched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "documents",
				Name:      "fetched_total",
				Help:      "Documents fetched from the source",
			},
		),
		DocumentsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "documents",
				Name:      "processed_total",
				Help:      "Documents whose completion flags merged after commit",
			},
		),
		DocumentsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "documents",
				Name:      "skipped_total",
				Help:      "Documents excluded for a missing root field",
			},
		),
		EntitiesExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "entities",
				Name:      "extracted_total",
				Help:      "Entities extracted by type",
			},
			[]string{"type"},
		),
		CommitFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "commit_failures_total",
				Help:      "Failed transaction commits",
			},
		),
		FlagUpdateFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "flag_update_failures_total",
				Help:      "Per-document flag merges that failed after retries",
			},
		),
		BatchNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "batch_nodes",
				Help:      "Set-node count per committed transaction",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		MonitorRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "monitor",
				Name:      "running",
				Help:      "Whether the polling loop is active (1) or paused (0)",
			},
		),
		SourceUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "up",
				Help:      "Last known document source reachability",
			},
		),
		StoreUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "graph",
				Name:      "up",
				Help:      "Last known graph store reachability",
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CyclesTotal,
		m.CycleDuration,
		m.DocumentsFetched,
		m.DocumentsProcessed,
		m.DocumentsSkipped,
		m.EntitiesExtracted,
		m.CommitFailures,
		m.FlagUpdateFailures,
		m.BatchNodes,
		m.MonitorRunning,
		m.SourceUp,
		m.StoreUp,
	}
}
