package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one service instance. It owns
// its registry so tests and parallel servers don't collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	evaluations *prometheus.CounterVec
	alerts      *prometheus.CounterVec
	duration    prometheus.Histogram
	lastTotal   prometheus.Gauge
}

// NewMetrics registers the liability collectors plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liability",
			Name:      "employee_evaluations_total",
			Help:      "Employee evaluations by country and outcome (ok, error).",
		}, []string{"country", "outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liability",
			Name:      "alerts_total",
			Help:      "Portfolio alerts raised, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "liability",
			Name:      "portfolio_evaluation_seconds",
			Help:      "Wall time of a portfolio aggregation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "liability",
			Name:      "portfolio_total_reporting",
			Help:      "Total liability of the last evaluated portfolio, reporting currency.",
		}),
	}
	reg.MustRegister(
		m.evaluations, m.alerts, m.duration, m.lastTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// EmployeeEvaluated implements liability.Recorder.
func (m *Metrics) EmployeeEvaluated(country, outcome string) {
	m.evaluations.WithLabelValues(country, outcome).Inc()
}

// AlertRaised implements liability.Recorder.
func (m *Metrics) AlertRaised(kind string) {
	m.alerts.WithLabelValues(kind).Inc()
}

// PortfolioEvaluated implements liability.Recorder.
func (m *Metrics) PortfolioEvaluated(elapsed time.Duration, total float64) {
	m.duration.Observe(elapsed.Seconds())
	m.lastTotal.Set(total)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
