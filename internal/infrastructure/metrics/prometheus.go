// Package metrics expone contadores e histogramas Prometheus del servicio de facturación.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

const namespace = "billing"

var _ billing.Metrics = (*Registry)(nil)

// Registry registro propio (no el global) con las métricas del servicio.
type Registry struct {
	registry        *prometheus.Registry
	documentsIssued *prometheus.CounterVec
	saftExports     prometheus.Counter
	saftDuration    prometheus.Histogram
	saftEntries     prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewRegistry crea y registra todas las métricas, más las de proceso y runtime de Go.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		documentsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_issued_total",
			Help:      "Documentos fiscales certificados por tipo.",
		}, []string{"document_type"}),
		saftExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saft_exports_total",
			Help:      "Exportaciones SAF-T completadas.",
		}),
		saftDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saft_export_duration_seconds",
			Help:      "Duración de la generación del SAF-T.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		saftEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saft_export_entries",
			Help:      "Documentos incluidos por exportación.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por ruta, método y código.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.registry.MustRegister(
		r.documentsIssued, r.saftExports, r.saftDuration, r.saftEntries, r.httpRequests, r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) DocumentIssued(docType entity.DocumentType) {
	r.documentsIssued.WithLabelValues(string(docType)).Inc()
}

func (r *Registry) SAFTExported(duration time.Duration, entries int) {
	r.saftExports.Inc()
	r.saftDuration.Observe(duration.Seconds())
	r.saftEntries.Observe(float64(entries))
}

// ObserveHTTP registra una petición; route es el patrón (p. ej. /billing/invoices/:id), no la URL.
func (r *Registry) ObserveHTTP(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler endpoint /metrics del registro.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer para tests y exportadores externos.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }
