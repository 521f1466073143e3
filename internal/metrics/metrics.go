// Package metrics provides Prometheus collectors for wallet calls,
// submissions, gas discovery, streaming, and the chat proxy.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "swapdesk"

// Metrics holds the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	gasSources      *prometheus.CounterVec
	streamEvents    *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	proxyRequests   *prometheus.CounterVec
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = New()

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Wallet provider requests by method and outcome.",
		}, []string{"method", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Wallet provider request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transaction submissions by final state.",
		}, []string{"state"}),
		gasSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gas_price_source_total",
			Help:      "Gas price resolutions by source.",
		}, []string{"source"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Decoded chat stream events by kind.",
		}, []string{"kind"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend HTTP requests by service and status code.",
		}, []string{"service", "code"}),
		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Chat proxy requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.providerLatency,
		m.submissions,
		m.gasSources,
		m.streamEvents,
		m.backendRequests,
		m.proxyRequests,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordProviderCall records a wallet request with its duration and outcome.
func (m *Metrics) RecordProviderCall(method string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(method, outcome).Inc()
	m.providerLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSubmission records the final state of a submission.
func (m *Metrics) RecordSubmission(state string) {
	m.submissions.WithLabelValues(state).Inc()
}

// RecordGasSource records where a gas price came from.
func (m *Metrics) RecordGasSource(source string) {
	m.gasSources.WithLabelValues(source).Inc()
}

// RecordStreamEvent records a decoded stream event.
func (m *Metrics) RecordStreamEvent(kind string) {
	m.streamEvents.WithLabelValues(kind).Inc()
}

// RecordBackendRequest records a backend response status. Zero means the
// request never got a response.
func (m *Metrics) RecordBackendRequest(service string, status int) {
	m.backendRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
}

// RecordProxyRequest records a proxy response status.
func (m *Metrics) RecordProxyRequest(route string, status int) {
	m.proxyRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ProviderCalls returns the call count for a method and outcome.
func (m *Metrics) ProviderCalls(method, outcome string) float64 {
	return counterValue(m.providerCalls.WithLabelValues(method, outcome))
}

// Submissions returns the submission count for a final state.
func (m *Metrics) Submissions(state string) float64 {
	return counterValue(m.submissions.WithLabelValues(state))
}

// GasSources returns the resolution count for a gas price source.
func (m *Metrics) GasSources(source string) float64 {
	return counterValue(m.gasSources.WithLabelValues(source))
}

// StreamEvents returns the decoded event count for a kind.
func (m *Metrics) StreamEvents(kind string) float64 {
	return counterValue(m.streamEvents.WithLabelValues(kind))
}

// BackendRequests returns the request count for a service and status.
func (m *Metrics) BackendRequests(service string, status int) float64 {
	return counterValue(m.backendRequests.WithLabelValues(service, strconv.Itoa(status)))
}

// ProxyRequests returns the request count for a route and status.
func (m *Metrics) ProxyRequests(route string, status int) float64 {
	return counterValue(m.proxyRequests.WithLabelValues(route, strconv.Itoa(status)))
}

func counterValue(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
