package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// product pipeline.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration       prometheus.Histogram
	StageDuration     *prometheus.HistogramVec // labels: stage={resolve,extent,render,composite,publish,notify}
	ToolInvocations   *prometheus.CounterVec   // labels: tool, outcome={success,error}
	ProductsPublished *prometheus.CounterVec   // labels: locale, size
	LastSuccess       prometheus.Gauge         // unix seconds of the last completed run
	PipelineRunning   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StageDuration,
		m.ToolInvocations,
		m.ProductsPublished,
		m.LastSuccess,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtlewatch",
			Name:      "runs_total",
			Help:      "Completed product runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "turtlewatch",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete product run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turtlewatch",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		ToolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtlewatch",
			Name:      "tool_invocations_total",
			Help:      "External tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ProductsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turtlewatch",
			Name:      "products_published_total",
			Help:      "Staged product images by locale and size.",
		}, []string{"locale", "size"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "turtlewatch",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "turtlewatch",
			Name:      "pipeline_running",
			Help:      "1 while a product run is in progress.",
		}),
	}
}
