package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service metrics on a private prometheus registry so that
// tests can build as many as they like. A nil *Registry is a valid no-op.
type Registry struct {
	reg *prometheus.Registry

	RefreshCycles   *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	CollectorErrors *prometheus.CounterVec
	EnrichBatches   *prometheus.CounterVec
	Pushes          *prometheus.CounterVec
	SnapshotEntries *prometheus.GaugeVec
	SnapshotVersion prometheus.Gauge
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_refresh_cycles_total",
			Help: "Refresh cycles by result (ok, no_reference, error)",
		}, []string{"result"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "listings_refresh_duration_seconds",
			Help:    "Wall time of one refresh cycle",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		CollectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_collector_errors_total",
			Help: "Collector failures by exchange and kind",
		}, []string{"exchange", "kind"}),
		EnrichBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_enrich_batches_total",
			Help: "Market-cap batches by result",
		}, []string{"result"}),
		Pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listings_push_total",
			Help: "Worker push requests by result (ok, auth, validation)",
		}, []string{"result"}),
		SnapshotEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "listings_snapshot_entries",
			Help: "Entries per list in the installed snapshot",
		}, []string{"list"}),
		SnapshotVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "listings_snapshot_version",
			Help: "Version of the installed snapshot",
		}),
	}
	r.reg.MustRegister(
		r.RefreshCycles, r.RefreshDuration, r.CollectorErrors, r.EnrichBatches,
		r.Pushes, r.SnapshotEntries, r.SnapshotVersion,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Cycle(result string, seconds float64) {
	if r == nil {
		return
	}
	r.RefreshCycles.WithLabelValues(result).Inc()
	r.RefreshDuration.Observe(seconds)
}

func (r *Registry) CollectorError(exchange, kind string) {
	if r == nil {
		return
	}
	r.CollectorErrors.WithLabelValues(exchange, kind).Inc()
}

func (r *Registry) EnrichBatch(result string) {
	if r == nil {
		return
	}
	r.EnrichBatches.WithLabelValues(result).Inc()
}

func (r *Registry) Push(result string) {
	if r == nil {
		return
	}
	r.Pushes.WithLabelValues(result).Inc()
}

func (r *Registry) Snapshot(version uint64, reference, compA, compB, spotOnly int) {
	if r == nil {
		return
	}
	r.SnapshotVersion.Set(float64(version))
	r.SnapshotEntries.WithLabelValues("reference").Set(float64(reference))
	r.SnapshotEntries.WithLabelValues("comparison_a").Set(float64(compA))
	r.SnapshotEntries.WithLabelValues("comparison_b").Set(float64(compB))
	r.SnapshotEntries.WithLabelValues("bybit_spot").Set(float64(spotOnly))
}
