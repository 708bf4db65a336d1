package site

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records generation and front controller activity. A nil *Metrics
// records nothing.
type Metrics struct {
	regenerations   *prometheus.CounterVec
	regenDuration   prometheus.Histogram
	routesGenerated *prometheus.CounterVec
	staleRemoved    prometheus.Counter
	requests        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		regenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staticblog_regenerations_total",
			Help: "Full site regenerations by result.",
		}, []string{"result"}),
		regenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staticblog_regeneration_duration_seconds",
			Help:    "Wall time of full site regenerations.",
			Buckets: prometheus.DefBuckets,
		}),
		routesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staticblog_routes_generated_total",
			Help: "Routes rendered and written, by page kind and result.",
		}, []string{"kind", "result"}),
		staleRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staticblog_stale_files_removed_total",
			Help: "Generated files removed because their content is gone.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staticblog_frontend_requests_total",
			Help: "Front controller requests by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{m.regenerations, m.regenDuration, m.routesGenerated, m.staleRemoved, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRegeneration(seconds float64, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.regenerations.WithLabelValues(result).Inc()
	m.regenDuration.Observe(seconds)
}

func (m *Metrics) observeRoute(kind Kind, result string) {
	if m == nil {
		return
	}
	m.routesGenerated.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) observeStale(n int) {
	if m == nil || n == 0 {
		return
	}
	m.staleRemoved.Add(float64(n))
}

// ObserveRequest counts one front controller request.
func (m *Metrics) ObserveRequest(outcome Outcome) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(outcome)).Inc()
}
