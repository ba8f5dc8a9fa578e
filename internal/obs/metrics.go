// Package obs holds the ambient Prometheus instrumentation shared by the
// ann facade.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms one Index reports. Each
// instance registers against its own private registry rather than the
// global default one, so building more than one Index in a process (as
// the test suite does) never collides on metric names.
type Metrics struct {
	Registry      *prometheus.Registry
	Inserts       prometheus.Counter
	Searches      prometheus.Counter
	SearchErrors  prometheus.Counter
	SearchLatency prometheus.Histogram
	GraphLevel    prometheus.Gauge
	GraphDegree   prometheus.Gauge
}

// NewMetrics builds a fresh Metrics bound to a new private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Inserts: f.NewCounter(prometheus.CounterOpts{
			Name: "annidx_inserts_total",
			Help: "Total vector insertions accepted by the index.",
		}),
		Searches: f.NewCounter(prometheus.CounterOpts{
			Name: "annidx_searches_total",
			Help: "Total k-NN search queries served.",
		}),
		SearchErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "annidx_search_errors_total",
			Help: "Total k-NN search queries that returned an error.",
		}),
		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "annidx_search_latency_seconds",
			Help:    "k-NN search latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		GraphLevel: f.NewGauge(prometheus.GaugeOpts{
			Name: "annidx_graph_top_level",
			Help: "Index of the highest currently allocated HNSW layer.",
		}),
		GraphDegree: f.NewGauge(prometheus.GaugeOpts{
			Name: "annidx_graph_avg_degree",
			Help: "Mean out-degree of layer-0 nodes.",
		}),
	}
}
