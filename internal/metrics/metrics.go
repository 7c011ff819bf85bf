// Package metrics: счётчики Prometheus по операциям с записями.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dms"

type Metrics struct {
	registry *prometheus.Registry

	ValidationFailures *prometheus.CounterVec
	ClaimsTotal        *prometheus.CounterVec
	UsersTotal         *prometheus.CounterVec
	StorageErrors      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ValidationFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Rejected candidates by entity and field",
			},
			[]string{"entity", "field"},
		),
		ClaimsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "claims_total",
				Help:      "Claim lifecycle actions that succeeded",
			},
			[]string{"action"},
		),
		UsersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_total",
				Help:      "User account actions that succeeded",
			},
			[]string{"action"},
		),
		StorageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Record and blob store failures",
			},
			[]string{"op"},
		),
	}
}

// Handler отдаёт реестр в текстовом формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ValidationFailed считает каждое поле отклонённых данных. На nil ничего
// не делает, сервисы могут работать без метрик.
func (m *Metrics) ValidationFailed(entity string, fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.ValidationFailures.WithLabelValues(entity, f).Inc()
	}
}

func (m *Metrics) ClaimAction(action string) {
	if m == nil {
		return
	}
	m.ClaimsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) UserAction(action string) {
	if m == nil {
		return
	}
	m.UsersTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) StorageFailed(op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(op).Inc()
}
