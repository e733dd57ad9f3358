// Package metrics exposes request counters and latency in Prometheus
// exposition format. Each Collector owns a private registry so tests can use
// a fresh one per run instead of sharing process-wide state.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook result labels for webhook_requests_total.
const (
	ResultCreated          = "created"
	ResultDuplicate        = "duplicate"
	ResultInvalidSignature = "invalid_signature"
	ResultValidationError  = "validation_error"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	webhookRequests *prometheus.CounterVec
	latency         prometheus.Summary
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		webhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Webhook deliveries by outcome.",
		}, []string{"result"}),
		latency: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "http_request_latency_ms",
			Help: "Request latency in milliseconds.",
		}),
	}

	c.registry.MustRegister(c.httpRequests, c.webhookRequests, c.latency)
	return c
}

// RecordHTTPRequest counts one request against http_requests_total.
func (c *Collector) RecordHTTPRequest(path string, status int) {
	c.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// RecordWebhookResult counts one delivery against webhook_requests_total.
// result should be one of the Result* constants.
func (c *Collector) RecordWebhookResult(result string) {
	c.webhookRequests.WithLabelValues(result).Inc()
}

// ObserveLatency records one request latency observation in milliseconds.
func (c *Collector) ObserveLatency(ms float64) {
	c.latency.Observe(ms)
}

// Handler serves this collector's metrics in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
