package httpserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the server's counters on a private registry, so multiple
// server instances can coexist within one process.
type metrics struct {
	registry *prometheus.Registry

	uploadsTotal  prometheus.Counter
	parseFailures prometheus.Counter
	exportsTotal  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		uploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "licznik_uploads_total",
			Help: "Number of source files accepted for analysis.",
		}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "licznik_parse_failures_total",
			Help: "Number of uploaded files rejected during parsing.",
		}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "licznik_exports_total",
			Help: "Number of generated report exports by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.uploadsTotal, m.parseFailures, m.exportsTotal)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
