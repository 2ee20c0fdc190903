package storage

import "github.com/prometheus/client_golang/prometheus"

const (
	opRead   = "read"
	opDecode = "decode"
	opEncode = "encode"
	opWrite  = "write"
	opRemove = "remove"
)

type Metrics struct {
	Failures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_persistence_failures_total",
				Help: "Persistence operations that failed and were degraded",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.Failures)
	return m
}

func (m *Metrics) failed(op string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(op).Inc()
}
