// Package metrics defines the Prometheus metric collectors used by the
// analytics clients and the export tooling, and exposes an HTTP handler
// for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	RPCCallsTotal     *prometheus.CounterVec
	RPCCallDuration   *prometheus.HistogramVec
	ExportRowsTotal   *prometheus.CounterVec
	ExportErrorsTotal *prometheus.CounterVec
	DocumentsRead     prometheus.Counter
}

// New creates all collectors and registers them with the given registerer.
// A nil registerer falls back to the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RPCCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_calls_total",
				Help: "Total RPC calls by service, method, and status (ok, server_error, unavailable).",
			},
			[]string{"service", "method", "status"},
		),
		RPCCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpc_call_duration_seconds",
				Help:    "RPC round-trip latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method"},
		),
		ExportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_rows_total",
				Help: "Total CSV rows written by study unit (accesses, counts, licenses, dates).",
			},
			[]string{"unit"},
		),
		ExportErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_errors_total",
				Help: "Total documents skipped during export due to errors.",
			},
			[]string{"unit"},
		),
		DocumentsRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "documents_read_total",
				Help: "Total documents fetched from the article metadata feed.",
			},
		),
	}

	reg.MustRegister(
		m.RPCCallsTotal,
		m.RPCCallDuration,
		m.ExportRowsTotal,
		m.ExportErrorsTotal,
		m.DocumentsRead,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
