package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the process collectors. A nil *Registry is valid and
// records nothing, so components can be built without metrics in tests.
type Registry struct {
	reg                *prometheus.Registry
	HTTPRequests       *prometheus.CounterVec
	HTTPLatencySec     *prometheus.HistogramVec
	ReceptionsRecorded prometheus.Counter
	ReceptionsDeleted  prometheus.Counter
	AuditsCreated      *prometheus.CounterVec
	StatusChanges      *prometheus.CounterVec
	NotifyFailures     *prometheus.CounterVec
	CatalogImported    prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recebimento_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recebimento_http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	recorded := prometheus.NewCounter(prometheus.CounterOpts{Name: "recebimento_receptions_recorded_total"})
	deleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "recebimento_receptions_deleted_total"})
	audits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recebimento_audits_created_total",
		Help: "Audits by mode and initial status.",
	}, []string{"mode", "status"})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "recebimento_audit_status_changes_total"}, []string{"status"})
	notifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "recebimento_notify_failures_total"}, []string{"notifier"})
	catalog := prometheus.NewGauge(prometheus.GaugeOpts{Name: "recebimento_catalog_last_import_products"})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests, httpLatency, recorded, deleted, audits, statusChanges, notifyFailures, catalog,
	)

	return &Registry{
		reg:                r,
		HTTPRequests:       httpRequests,
		HTTPLatencySec:     httpLatency,
		ReceptionsRecorded: recorded,
		ReceptionsDeleted:  deleted,
		AuditsCreated:      audits,
		StatusChanges:      statusChanges,
		NotifyFailures:     notifyFailures,
		CatalogImported:    catalog,
	}
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPLatencySec.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (r *Registry) ReceptionRecorded() {
	if r == nil {
		return
	}
	r.ReceptionsRecorded.Inc()
}

func (r *Registry) ReceptionDeleted() {
	if r == nil {
		return
	}
	r.ReceptionsDeleted.Inc()
}

func (r *Registry) AuditCreated(mode, status string) {
	if r == nil {
		return
	}
	r.AuditsCreated.WithLabelValues(mode, status).Inc()
}

func (r *Registry) StatusChanged(status string) {
	if r == nil {
		return
	}
	r.StatusChanges.WithLabelValues(status).Inc()
}

func (r *Registry) NotifyFailed(notifier string) {
	if r == nil {
		return
	}
	r.NotifyFailures.WithLabelValues(notifier).Inc()
}

func (r *Registry) CatalogLoaded(n int) {
	if r == nil {
		return
	}
	r.CatalogImported.Set(float64(n))
}
