package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "storefront").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "storefront",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for the client.
type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	publishesTotal  *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	hydrationsTotal *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
}

// globalMetrics is created on the first call to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_requests_total",
			Help:        "Total number of backend API requests",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_request_duration_seconds",
			Help:        "Backend API request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_request_errors_total",
			Help:        "Total number of failed backend API requests",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "error_type"}),

		publishesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bus_publishes_total",
			Help:        "Total number of change notifications published",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bus_deliveries_total",
			Help:        "Total number of handler invocations by the notification bus",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		hydrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_hydrations_total",
			Help:        "Session hydrations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Reconciled mutations by action and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"action", "outcome"}),
	}
}

// Prometheus creates transport middleware that records API request metrics.
// It also enables the Record* functions used by the bus, session and
// reconcile packages.
//
// Metrics collected:
//   - storefront_api_requests_total: requests by operation and status class
//   - storefront_api_request_duration_seconds: request latency by operation
//   - storefront_api_request_errors_total: failures by operation and type
//   - storefront_bus_publishes_total / storefront_bus_deliveries_total
//   - storefront_session_hydrations_total
//   - storefront_mutations_total
//
// Example:
//
//	hc := &http.Client{
//	    Transport: middleware.Chain(nil,
//	        middleware.Prometheus(middleware.WithRegistry(reg)),
//	    ),
//	}
func Prometheus(opts ...MetricsOption) Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			op := Operation(req.Context())
			start := time.Now()

			resp, err := next.RoundTrip(req)

			m.requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			if err != nil {
				m.requestsTotal.WithLabelValues(op, "error").Inc()
				m.requestErrors.WithLabelValues(op, "network").Inc()
				return nil, err
			}

			m.requestsTotal.WithLabelValues(op, statusClass(resp.StatusCode)).Inc()
			if resp.StatusCode >= 400 {
				m.requestErrors.WithLabelValues(op, categorizeStatus(resp.StatusCode)).Inc()
			}
			return resp, nil
		})
	}
}

// statusClass collapses a status code to "2xx", "4xx" and so on.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}

// categorizeStatus returns a low-cardinality label for a failed response.
func categorizeStatus(code int) string {
	switch {
	case code == http.StatusUnauthorized:
		return "unauthorized"
	case code == http.StatusForbidden:
		return "forbidden"
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusConflict:
		return "conflict"
	case code == http.StatusTooManyRequests:
		return "rate_limit"
	case code >= 500:
		return "server"
	default:
		return "client"
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// RecordPublish records one bus publish and the handlers it reached.
func RecordPublish(event string, delivered int) {
	if m := current(); m != nil {
		m.publishesTotal.WithLabelValues(event).Inc()
		m.deliveriesTotal.WithLabelValues(event).Add(float64(delivered))
	}
}

// RecordHydration records the outcome of session hydration
// ("authenticated", "anonymous", "expired", "network").
func RecordHydration(result string) {
	if m := current(); m != nil {
		m.hydrationsTotal.WithLabelValues(result).Inc()
	}
}

// RecordMutation records a reconciled mutation ("success", "failure").
func RecordMutation(action, outcome string) {
	if m := current(); m != nil {
		m.mutationsTotal.WithLabelValues(action, outcome).Inc()
	}
}
