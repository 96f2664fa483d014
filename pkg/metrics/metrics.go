// Package metrics exports feed processing counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uhyunpark/mktfeed/pkg/feed"
)

type Metrics struct {
	reg *prometheus.Registry

	messages      *prometheus.CounterVec
	insideUpdates *prometheus.CounterVec
	feedErrors    *prometheus.CounterVec
	unknown       *prometheus.CounterVec
	liveOrders    *prometheus.GaugeVec
	books         *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	publish       *prometheus.HistogramVec
}

// New registers the feed collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mktfeed",
			Name:      "messages_total",
			Help:      "Messages decoded and dispatched.",
		}, []string{"session", "protocol"}),
		insideUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mktfeed",
			Name:      "inside_updates_total",
			Help:      "Inside quote changes reported.",
		}, []string{"session", "protocol"}),
		feedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mktfeed",
			Name:      "feed_errors_total",
			Help:      "Messages inconsistent with the order table.",
		}, []string{"session", "protocol"}),
		unknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mktfeed",
			Name:      "unknown_messages_total",
			Help:      "Messages with an unrecognized type.",
		}, []string{"session", "protocol"}),
		liveOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mktfeed",
			Name:      "live_orders",
			Help:      "Orders resting in the order table.",
		}, []string{"session", "protocol"}),
		books: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mktfeed",
			Name:      "books",
			Help:      "Instruments with a book.",
		}, []string{"session", "protocol"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mktfeed",
			Name:      "processing_seconds",
			Help:      "Per-message decode and book update time, before any output.",
			Buckets:   prometheus.ExponentialBuckets(50e-9, 2, 16),
		}, []string{"session", "protocol"}),
		publish: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mktfeed",
			Name:      "publish_seconds",
			Help:      "Time spent delivering one inside change to the outputs.",
			Buckets:   prometheus.ExponentialBuckets(100e-9, 2, 20),
		}, []string{"session", "protocol"}),
	}
	m.reg.MustRegister(m.messages, m.insideUpdates, m.feedErrors, m.unknown,
		m.liveOrders, m.books, m.latency, m.publish)
	return m
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Session returns the recorder for one replay session.
func (m *Metrics) Session(session, protocol string) *SessionMetrics {
	l := prometheus.Labels{"session": session, "protocol": protocol}
	return &SessionMetrics{
		messages:      m.messages.With(l),
		insideUpdates: m.insideUpdates.With(l),
		feedErrors:    m.feedErrors.With(l),
		unknown:       m.unknown.With(l),
		liveOrders:    m.liveOrders.With(l),
		books:         m.books.With(l),
		latency:       m.latency.With(l),
		publish:       m.publish.With(l),
	}
}

// SessionMetrics mirrors processor counters into Prometheus. Counters
// are published as deltas against the last observed snapshot.
type SessionMetrics struct {
	messages      prometheus.Counter
	insideUpdates prometheus.Counter
	feedErrors    prometheus.Counter
	unknown       prometheus.Counter
	liveOrders    prometheus.Gauge
	books         prometheus.Gauge
	latency       prometheus.Observer
	publish       prometheus.Observer

	last feed.Counters
}

// ObserveLatency records the processing time of one message, in
// nanoseconds.
func (s *SessionMetrics) ObserveLatency(ns float64) { s.latency.Observe(ns / 1e9) }

// ObservePublish records the output time of one inside change, in
// nanoseconds.
func (s *SessionMetrics) ObservePublish(ns float64) { s.publish.Observe(ns / 1e9) }

// Update publishes the change since the previous call.
func (s *SessionMetrics) Update(c feed.Counters, liveOrders, books int) {
	s.messages.Add(float64(c.Messages - s.last.Messages))
	s.insideUpdates.Add(float64(c.InsideUpdates - s.last.InsideUpdates))
	s.feedErrors.Add(float64(c.FeedErrors - s.last.FeedErrors))
	s.unknown.Add(float64(c.Unknown - s.last.Unknown))
	s.liveOrders.Set(float64(liveOrders))
	s.books.Set(float64(books))
	s.last = c
}
