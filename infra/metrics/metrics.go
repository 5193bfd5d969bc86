package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config labels every series with the running service and environment
type Config struct {
	ServiceName string
	Environment string
}

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	webhookEvents      *prometheus.CounterVec
	webhookDuration    *prometheus.HistogramVec
	vendorRequests     *prometheus.HistogramVec
	orderLookupRetries prometheus.Counter
	gatherer           prometheus.Gatherer
}

var (
	metricsOnce sync.Once
	instance    *Metrics
)

// Default returns the process wide metrics registered on the default registry
func Default() *Metrics {
	return WithConfig(Config{})
}

// WithConfig returns the process wide metrics, creating them on first use
func WithConfig(cfg Config) *Metrics {
	metricsOnce.Do(func() {
		instance = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, cfg)
	})
	return instance
}

// ResetForTest drops the process wide instance
func ResetForTest() {
	metricsOnce = sync.Once{}
	instance = nil
}

// New creates collectors on the given registerer
func New(registerer prometheus.Registerer, gatherer prometheus.Gatherer, cfg Config) *Metrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "medusa-hyperswitch"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "hyperswitch_webhook_events_total",
				Help:        "Webhook events handled, by event type and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"event_type", "action", "status"},
		),
		webhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "hyperswitch_webhook_duration_seconds",
				Help:        "Time spent reconciling one webhook event.",
				Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				ConstLabels: constLabels,
			},
			[]string{"event_type"},
		),
		vendorRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "hyperswitch_vendor_request_duration_seconds",
				Help:        "Latency of Hyperswitch API calls.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"operation", "result"},
		),
		orderLookupRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "hyperswitch_order_lookup_retries_total",
				Help:        "Order lookups retried while waiting for cart completion.",
				ConstLabels: constLabels,
			},
		),
		gatherer: gatherer,
	}

	if registerer != nil {
		registerer.MustRegister(m.webhookEvents, m.webhookDuration, m.vendorRequests, m.orderLookupRetries)
	}
	return m
}

// ObserveWebhook records one handled webhook event
func (m *Metrics) ObserveWebhook(eventType, action string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, action, strconv.Itoa(status)).Inc()
	m.webhookDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

// ObserveVendorCall records the latency of one vendor API call
func (m *Metrics) ObserveVendorCall(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.vendorRequests.WithLabelValues(operation, result).Observe(elapsed.Seconds())
}

// IncOrderLookupRetry counts one retried order lookup
func (m *Metrics) IncOrderLookupRetry() {
	if m == nil {
		return
	}
	m.orderLookupRetries.Inc()
}

// Handler serves the collected metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
