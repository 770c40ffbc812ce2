package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vezaxff"

// Metrics holds the counters of a single run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	events          *prometheus.CounterVec
	attempts        *prometheus.CounterVec
}

// NewMetrics registers the run metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Warcraft Logs API requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Warcraft Logs API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_fetched_total",
			Help:      "Combat log events fetched by kind.",
		}, []string{"kind"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_analyzed_total",
			Help:      "Encounter attempts analyzed by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.events, m.attempts)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one API round trip. code is 0 when no response was received.
func (m *Metrics) ObserveRequest(endpoint string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// AddEvents counts fetched events of the given kind.
func (m *Metrics) AddEvents(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.events.WithLabelValues(kind).Add(float64(n))
}

// AttemptAnalyzed counts an analyzed attempt.
func (m *Metrics) AttemptAnalyzed(kill bool) {
	if m == nil {
		return
	}
	outcome := "wipe"
	if kill {
		outcome = "kill"
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// WriteFile writes the registry in the text exposition format, replacing path.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
