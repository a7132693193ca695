package subpub

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - счетчики работы шины. Коллекторы создаются незарегистрированными,
// приложение регистрирует их в своем prometheus.Registerer через Register.
type Metrics struct {
	published   *prometheus.CounterVec
	delivered   *prometheus.CounterVec
	subscribers prometheus.Gauge
}

// NewMetrics создает набор коллекторов шины.
func NewMetrics() *Metrics {
	return &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subpub",
			Name:      "published_total",
			Help:      "Number of messages published per subject.",
		}, []string{"subject"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subpub",
			Name:      "delivered_total",
			Help:      "Number of messages handed to subscriber handlers per subject.",
		}, []string{"subject"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "subpub",
			Name:      "subscribers",
			Help:      "Number of active subscriptions.",
		}),
	}
}

// Register регистрирует коллекторы шины в reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.published); err != nil {
		return errors.Wrap(err, "register published counter")
	}
	if err := reg.Register(m.delivered); err != nil {
		return errors.Wrap(err, "register delivered counter")
	}
	if err := reg.Register(m.subscribers); err != nil {
		return errors.Wrap(err, "register subscribers gauge")
	}
	return nil
}
