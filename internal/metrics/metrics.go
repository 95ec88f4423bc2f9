// Package metrics exposes Prometheus instrumentation for the dashboard service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector registered by the service. Each instance has
// its own registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	ReadingsIngested prometheus.Counter
	ReadingsRejected *prometheus.CounterVec
	ReadingsEvicted  prometheus.Counter
	DashboardBuilds  prometheus.Counter
	ArchiveDropped   prometheus.Counter
	CurrentPower     prometheus.Gauge
	MonthlyTarget    prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "greenmeter_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greenmeter_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ReadingsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "greenmeter_readings_ingested_total",
			Help: "Readings accepted into the live window",
		}),
		ReadingsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "greenmeter_readings_rejected_total",
			Help: "Readings refused by validation",
		}, []string{"source"}),
		ReadingsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "greenmeter_readings_evicted_total",
			Help: "Readings pushed out of the live window",
		}),
		DashboardBuilds: factory.NewCounter(prometheus.CounterOpts{
			Name: "greenmeter_dashboard_builds_total",
			Help: "Dashboard snapshots compiled",
		}),
		ArchiveDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "greenmeter_archive_dropped_total",
			Help: "Archive jobs dropped because the queue was full",
		}),
		CurrentPower: factory.NewGauge(prometheus.GaugeOpts{
			Name: "greenmeter_current_power_watts",
			Help: "Most recently ingested power reading",
		}),
		MonthlyTarget: factory.NewGauge(prometheus.GaugeOpts{
			Name: "greenmeter_monthly_target",
			Help: "Current monthly budget target",
		}),
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
