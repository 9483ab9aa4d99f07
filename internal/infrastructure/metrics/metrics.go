// Package metrics colectores Prometheus del ciclo de vida de los documentos.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

const namespace = "facturador"

// Metrics implementa billing.Recorder sobre un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	ingestTotal      *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	rangeExhausted   *prometheus.CounterVec
}

var _ billing.Recorder = (*Metrics)(nil)

// New registra los colectores. withRuntime agrega los de proceso y runtime de Go.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		ingestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_total",
			Help:      "Archivos XML procesados por resultado (created, skipped, failed).",
		}, []string{"outcome"}),

		dispatchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Envíos a la API por tipo de documento y estado resultante.",
		}, []string{"kind", "status"}),

		dispatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Duración del envío de un documento, desde el bloqueo hasta la respuesta.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s a ~64s
		}, []string{"kind"}),

		rangeExhausted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "range_exhausted_total",
			Help:      "Intentos de numerar con la resolución agotada.",
		}, []string{"kind"}),
	}
}

// IngestOutcome cuenta un archivo importado.
func (m *Metrics) IngestOutcome(outcome billing.IngestOutcome) {
	m.ingestTotal.WithLabelValues(string(outcome)).Inc()
}

// DispatchOutcome cuenta un envío y su duración.
func (m *Metrics) DispatchOutcome(kind entity.DocumentKind, status entity.DocumentStatus, elapsed time.Duration) {
	m.dispatchTotal.WithLabelValues(string(kind), string(status)).Inc()
	m.dispatchDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// RangeExhausted cuenta una numeración fallida por rango agotado.
func (m *Metrics) RangeExhausted(kind entity.DocumentKind) {
	m.rangeExhausted.WithLabelValues(string(kind)).Inc()
}

// Registry registro subyacente (pruebas).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler expone el registro en formato de texto de Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
