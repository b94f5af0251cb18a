package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	articles      *prometheus.CounterVec
	capability    *prometheus.HistogramVec
	queryFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcer",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		articles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcer",
			Name:      "stage_articles_total",
			Help:      "Articles leaving each pipeline stage.",
		}, []string{"stage"}),
		capability: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sourcer",
			Name:      "capability_duration_seconds",
			Help:      "Latency of external capability calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"capability", "outcome"}),
		queryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sourcer",
			Name:      "query_failures_total",
			Help:      "Query variants that yielded nothing because of an absorbed failure.",
		}, []string{"reason"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.runs, m.articles, m.capability, m.queryFailures} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) countArticles(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.articles.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) observeCapability(stage Stage, began time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.capability.WithLabelValues(string(stage), outcome).Observe(time.Since(began).Seconds())
}

func (m *Metrics) queryFailure(reason string) {
	if m == nil {
		return
	}
	m.queryFailures.WithLabelValues(reason).Inc()
}
