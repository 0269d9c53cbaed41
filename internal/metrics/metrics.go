// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealroom"

// Metrics groups the collectors registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	clientUpdates  *prometheus.CounterVec
	ignoredInputs  *prometheus.CounterVec
	conflicts      prometheus.Counter
	seedReloads    *prometheus.CounterVec
	documentBytes  prometheus.Counter
	sessions       prometheus.Gauge
	sseSubscribers prometheus.Gauge
}

// New creates a Metrics with its own registry, including the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		clientUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_updates_total",
			Help:      "Committed client record updates by operation.",
		}, []string{"op"}),
		ignoredInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ignored_inputs_total",
			Help:      "Append requests dropped because the text was blank, by collection.",
		}, []string{"collection"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_conflicts_total",
			Help:      "Updates rejected because the If-Match checksum was stale.",
		}),
		seedReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_reloads_total",
			Help:      "Seed file reloads by result.",
		}, []string{"result"}),
		documentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_upload_bytes_total",
			Help:      "Bytes written to document storage.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open presenter sessions.",
		}),
		sseSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_subscribers",
			Help:      "Connected event stream clients.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.clientUpdates,
		m.ignoredInputs,
		m.conflicts,
		m.seedReloads,
		m.documentBytes,
		m.sessions,
		m.sseSubscribers,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ClientUpdated counts a committed update for op.
func (m *Metrics) ClientUpdated(op string) {
	if m == nil {
		return
	}
	m.clientUpdates.WithLabelValues(op).Inc()
}

// InputIgnored counts a blank append for the named collection.
func (m *Metrics) InputIgnored(collection string) {
	if m == nil {
		return
	}
	m.ignoredInputs.WithLabelValues(collection).Inc()
}

// Conflict counts a rejected stale update.
func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// SeedReloaded counts a seed reload attempt.
func (m *Metrics) SeedReloaded(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.seedReloads.WithLabelValues(result).Inc()
}

// DocumentStored adds n uploaded bytes.
func (m *Metrics) DocumentStored(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.documentBytes.Add(float64(n))
}

// SetSessions records the number of open sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// SetSubscribers records the number of event stream clients.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.sseSubscribers.Set(float64(n))
}
