package changefeed

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basegraph.app/leads/internal/model"
)

// Metrics holds the change feed Prometheus metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Subscribers   prometheus.Gauge
	Published     *prometheus.CounterVec
	Evicted       prometheus.Counter
	Undeliverable prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "leads_changefeed_subscribers",
				Help: "Number of live change feed subscribers.",
			},
		),
		Published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_changefeed_events_total",
				Help: "Total change events published by entity and change kind.",
			},
			[]string{"entity", "change"},
		),
		Evicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_changefeed_evictions_total",
				Help: "Total subscribers evicted for falling behind.",
			},
		),
		Undeliverable: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "leads_changefeed_undeliverable_total",
				Help: "Total relayed messages dropped because they could not be decoded.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.Subscribers)
	reg.MustRegister(m.Published)
	reg.MustRegister(m.Evicted)
	reg.MustRegister(m.Undeliverable)
	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) setSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

func (m *Metrics) published(e model.ChangeEvent) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(string(e.Entity), string(e.Change)).Inc()
}

func (m *Metrics) evicted() {
	if m == nil {
		return
	}
	m.Evicted.Inc()
}

func (m *Metrics) undeliverable() {
	if m == nil {
		return
	}
	m.Undeliverable.Inc()
}
