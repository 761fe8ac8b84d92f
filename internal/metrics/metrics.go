// Package metrics holds the Prometheus collectors for store actions and
// persistence flushes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK       = "ok"
	OutcomeDeclined = "declined"
	OutcomeError    = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	actions       *prometheus.CounterVec
	flushes       *prometheus.CounterVec
	flushDuration prometheus.Histogram
	notifications prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundromat_actions_total",
			Help: "Store actions by name and outcome.",
		}, []string{"action", "outcome"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laundromat_flush_total",
			Help: "Collection write-backs by collection and outcome.",
		}, []string{"collection", "outcome"}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "laundromat_flush_duration_seconds",
			Help:    "Latency of a single collection write-back.",
			Buckets: prometheus.DefBuckets,
		}),
		notifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laundromat_notifications",
			Help: "Notifications currently retained.",
		}),
	}
	reg.MustRegister(m.actions, m.flushes, m.flushDuration, m.notifications)
	return m
}

func (m *Metrics) Action(action string, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) Flush(collection string, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(collection, outcome).Inc()
	m.flushDuration.Observe(took.Seconds())
}

func (m *Metrics) Notifications(n int) {
	if m == nil {
		return
	}
	m.notifications.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
