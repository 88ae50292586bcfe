package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intelstack/internal/ports"
)

// Prom implements ports.Metrics backed by Prometheus collectors
type Prom struct {
	runs        *prometheus.CounterVec
	targets     *prometheus.CounterVec
	folderSyncs *prometheus.CounterVec
	runDuration prometheus.Histogram
	gatherer    prometheus.Gatherer
}

// Ensure Prom implements Metrics
var _ ports.Metrics = (*Prom)(nil)

// NewProm creates collectors under namespace and registers them on a
// private registry
func NewProm(namespace string) *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_runs_total",
			Help:      "Update runs by status",
		}, []string{"status"}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_targets_total",
			Help:      "Update targets by kind and outcome",
		}, []string{"kind", "outcome"}),
		folderSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folder_syncs_total",
			Help:      "External folder reconciliations by status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_run_duration_seconds",
			Help:      "Duration of update runs",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: reg,
	}
	reg.MustRegister(p.runs, p.targets, p.folderSyncs, p.runDuration)
	return p
}

func (p *Prom) IncRuns(status string) {
	p.runs.WithLabelValues(status).Inc()
}

func (p *Prom) IncTargets(kind, outcome string) {
	p.targets.WithLabelValues(kind, outcome).Inc()
}

func (p *Prom) IncFolderSyncs(status string) {
	p.folderSyncs.WithLabelValues(status).Inc()
}

func (p *Prom) ObserveRunDuration(seconds float64) {
	p.runDuration.Observe(seconds)
}

// Handler returns an HTTP handler for /metrics
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
