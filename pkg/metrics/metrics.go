package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Registry держит собственный реестр, чтобы тесты и несколько экземпляров не
// конфликтовали на глобальном prometheus.DefaultRegisterer.
type Registry struct {
	reg *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{reg: reg}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(r *Registry, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler", "method"})

	r.reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// SalesMetrics считает исходы продаж.
type SalesMetrics struct {
	committed   prometheus.Counter
	replayed    prometheus.Counter
	rejected    *prometheus.CounterVec
	amountCents prometheus.Counter
	lines       prometheus.Histogram
}

func NewSalesMetrics(r *Registry) *SalesMetrics {
	m := &SalesMetrics{
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "committed_total",
			Help:      "Sales committed.",
		}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "replayed_total",
			Help:      "Sales returned from an idempotency key instead of being committed again.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "rejected_total",
			Help:      "Sales rejected, by reason.",
		}, []string{"reason"}),
		amountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "revenue_cents_total",
			Help:      "Revenue of committed sales in minor currency units.",
		}),
		lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "lines",
			Help:      "Number of line items per committed sale.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
	}

	r.reg.MustRegister(m.committed, m.replayed, m.rejected, m.amountCents, m.lines)
	return m
}

func (m *SalesMetrics) SaleCommitted(totalAmount int64, lines int) {
	m.committed.Inc()
	m.amountCents.Add(float64(totalAmount))
	m.lines.Observe(float64(lines))
}

func (m *SalesMetrics) SaleRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *SalesMetrics) SaleReplayed() {
	m.replayed.Inc()
}
