package ledger

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles Prometheus collectors mirroring the ledger counters.
type Metrics struct {
	registry *prometheus.Registry
	Requests *prometheus.CounterVec
	Tokens   *prometheus.CounterVec
	CostUSD  *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with usage collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfinder_requests_total",
		Help: "Routed requests by backend, task category and outcome",
	}, []string{"backend", "category", "outcome"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfinder_tokens_total",
		Help: "Tokens consumed by backend and task category",
	}, []string{"backend", "category"})

	cost := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfinder_cost_usd_total",
		Help: "Estimated spend in USD by backend and task category",
	}, []string{"backend", "category"})

	reg.MustRegister(requests, tokens, cost)

	return &Metrics{
		registry: reg,
		Requests: requests,
		Tokens:   tokens,
		CostUSD:  cost,
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one usage observation into the collectors.
func (m *Metrics) Observe(backendID, category string, tokensUsed int, costUSD float64, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}

	m.Requests.WithLabelValues(backendID, category, outcome).Inc()
	m.Tokens.WithLabelValues(backendID, category).Add(float64(tokensUsed))
	m.CostUSD.WithLabelValues(backendID, category).Add(costUSD)
}
