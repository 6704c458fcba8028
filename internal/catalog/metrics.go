package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	opCreate = "create"
	opUpdate = "update"

	outcomeApplied  = "applied"
	outcomeConflict = "conflict"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type Metrics struct {
	Writes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_writes_total",
				Help: "Product writes by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
	reg.MustRegister(m.Writes)
	return m
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.Writes.WithLabelValues(op, outcome).Inc()
}
