// Package prometheus records pipeline metrics with the Prometheus client
// library. Metrics live on a private registry and are exported with
// WriteTextfile for the node exporter textfile collector, since the CLI
// is short-lived and never serves HTTP.
package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the collectors shared by the decorators in this package.
type Metrics struct {
	Registry *prometheus.Registry

	StageRuns       *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	FetchRequests   *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	ListingsCrawled *prometheus.CounterVec

	mu       sync.Mutex
	imported map[string]*dto.MetricFamily // folded in by MergeTextfile
}

// NewMetrics creates the collectors on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		imported: make(map[string]*dto.MetricFamily),
		StageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realty_stage_runs_total",
				Help: "Total number of pipeline stage executions.",
			},
			[]string{"stage", "result"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "realty_stage_duration_seconds",
				Help:    "Duration of pipeline stage executions.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		FetchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realty_fetch_requests_total",
				Help: "Total number of page fetches.",
			},
			[]string{"result"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "realty_fetch_duration_seconds",
				Help:    "Duration of page fetches.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ListingsCrawled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realty_listings_crawled_total",
				Help: "Total number of listings extracted.",
			},
			[]string{"area"},
		),
	}
}

// WriteTextfile writes every metric, including merged ones, to path in the
// text exposition format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
