// Package metrics expone contadores Prometheus del libro de lotes.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/internal/domain"
	"github.com/jhoicas/Lotes-api/internal/domain/entity"
	"github.com/jhoicas/Lotes-api/internal/domain/validation"
)

var _ lot.Observer = (*LedgerMetrics)(nil)

const namespace = "lotes"

// LedgerMetrics cuenta movimientos registrados, operaciones rechazadas y fallos.
type LedgerMetrics struct {
	registry   *prometheus.Registry
	movements  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewLedgerMetrics crea los contadores sobre un registro propio (con métricas de proceso y runtime).
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := &LedgerMetrics{
		registry: reg,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movimientos_registrados_total",
			Help:      "Movimientos registrados por operación, tipo y motivo.",
		}, []string{"operacion", "tipo", "motivo"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operaciones_rechazadas_total",
			Help:      "Operaciones rechazadas por validación, por operación y código del primer error.",
		}, []string{"operacion", "codigo"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operaciones_fallidas_total",
			Help:      "Operaciones abortadas por ruptura de integridad u otro error.",
		}, []string{"operacion", "clase"}),
	}
	reg.MustRegister(
		m.movements, m.rejections, m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registered implementa lot.Observer.
func (m *LedgerMetrics) Registered(op string, mv *entity.Movement) {
	m.movements.WithLabelValues(op, string(mv.Kind), string(mv.Motive)).Inc()
}

// Rejected implementa lot.Observer.
func (m *LedgerMetrics) Rejected(op string, errs validation.Errors) {
	code := ""
	if len(errs) > 0 {
		code = errs[0].Code
	}
	m.rejections.WithLabelValues(op, code).Inc()
}

// Failed implementa lot.Observer.
func (m *LedgerMetrics) Failed(op string, err error) {
	m.failures.WithLabelValues(op, failureClass(err)).Inc()
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrIntegrity):
		return "integridad"
	case errors.Is(err, domain.ErrNotFound):
		return "no_encontrado"
	default:
		return "interno"
	}
}

// Registry devuelve el registro, para tests o para sumar colectores.
func (m *LedgerMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler sirve el formato de exposición de Prometheus.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
