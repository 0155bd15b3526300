// Package metrics holds the Prometheus collectors for the ordering core.
// Each Metrics value owns its registry so tests can build as many as they need.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "restaurant"

type Metrics struct {
	Registry *prometheus.Registry

	AuthzDecisions     *prometheus.CounterVec
	OrderTransitions   *prometheus.CounterVec
	SweepRuns          *prometheus.CounterVec
	SweepPromoted      prometheus.Counter
	Notifications      *prometheus.CounterVec
	PermissionCache    *prometheus.CounterVec
	HTTPRequestTotal   *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		AuthzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Authorization decisions by outcome and deny reason.",
		}, []string{"resource", "action", "outcome", "reason"}),

		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to"}),

		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Sweeper iterations by result.",
		}, []string{"result"}), // "ok" | "failed"

		SweepPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "promoted_total",
			Help:      "Orders moved from preparing to ready by the sweeper.",
		}),

		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "events_total",
			Help:      "Notification events by kind and result.",
		}, []string{"kind", "result"}), // "published" | "failed" | "dropped"

		PermissionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "permission_cache",
			Name:      "lookups_total",
			Help:      "Permission cache lookups.",
		}, []string{"driver", "result"}), // "hit" | "miss" | "error"

		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		HTTPRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthzDecisions,
		m.OrderTransitions,
		m.SweepRuns,
		m.SweepPromoted,
		m.Notifications,
		m.PermissionCache,
		m.HTTPRequestTotal,
		m.HTTPRequestSeconds,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ObserveHTTP(method, path, status string, start time.Time) {
	m.HTTPRequestTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
}
