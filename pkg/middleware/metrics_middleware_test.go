package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func respondWith(status int) RoundTripperFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Body:       io.NopCloser(strings.NewReader("{}")),
			Header:     make(http.Header),
			Request:    r,
		}, nil
	}
}

func doRequest(t *testing.T, rt http.RoundTripper, op string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(WithOperation(context.Background(), op), http.MethodGet, "http://backend.test/api/cart", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := rt.RoundTrip(req)
	if resp != nil {
		resp.Body.Close()
	}
	return resp, err
}

func TestPrometheusMiddleware_RecordsRequests(t *testing.T) {
	t.Run("success increments status class and duration", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()
		rt := Chain(respondWith(http.StatusOK), Prometheus(WithRegistry(reg)))

		if _, err := doRequest(t, rt, "get_cart"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := current()
		if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("get_cart", "2xx")); got != 1 {
			t.Fatalf("api_requests_total(2xx)=%v, want 1", got)
		}
		if got := metricHistogramCount(t, m.requestDuration.WithLabelValues("get_cart")); got != 1 {
			t.Fatalf("duration count=%v, want 1", got)
		}
	})

	t.Run("unauthorized is categorized", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()
		rt := Chain(respondWith(http.StatusUnauthorized), Prometheus(WithRegistry(reg)))

		if _, err := doRequest(t, rt, "get_cart"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := current()
		if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("get_cart", "4xx")); got != 1 {
			t.Fatalf("api_requests_total(4xx)=%v, want 1", got)
		}
		if got := metricCounterValue(t, m.requestErrors.WithLabelValues("get_cart", "unauthorized")); got != 1 {
			t.Fatalf("api_request_errors_total(unauthorized)=%v, want 1", got)
		}
	})

	t.Run("transport error counts as network", func(t *testing.T) {
		resetGlobalMetricsForTest()
		reg := prometheus.NewRegistry()
		failing := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})
		rt := Chain(failing, Prometheus(WithRegistry(reg)))

		if _, err := doRequest(t, rt, "checkout"); err == nil {
			t.Fatal("expected transport error")
		}

		m := current()
		if got := metricCounterValue(t, m.requestErrors.WithLabelValues("checkout", "network")); got != 1 {
			t.Fatalf("api_request_errors_total(network)=%v, want 1", got)
		}
	})
}

func TestRecordFunctions(t *testing.T) {
	resetGlobalMetricsForTest()

	// No-ops before initialization.
	RecordPublish("cartChanged", 2)
	RecordHydration("anonymous")
	RecordMutation("add_to_cart", "success")

	reg := prometheus.NewRegistry()
	Prometheus(WithRegistry(reg), WithNamespace("shop"))

	RecordPublish("cartChanged", 2)
	RecordPublish("cartChanged", 1)
	RecordHydration("expired")
	RecordMutation("add_to_cart", "failure")

	m := current()
	if got := metricCounterValue(t, m.publishesTotal.WithLabelValues("cartChanged")); got != 2 {
		t.Errorf("bus_publishes_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.deliveriesTotal.WithLabelValues("cartChanged")); got != 3 {
		t.Errorf("bus_deliveries_total=%v, want 3", got)
	}
	if got := metricCounterValue(t, m.hydrationsTotal.WithLabelValues("expired")); got != 1 {
		t.Errorf("session_hydrations_total=%v, want 1", got)
	}
	if got := metricCounterValue(t, m.mutationsTotal.WithLabelValues("add_to_cart", "failure")); got != 1 {
		t.Errorf("mutations_total=%v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "shop_bus_publishes_total" {
			found = true
		}
	}
	if !found {
		t.Error("namespace not applied to bus_publishes_total")
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 404: "4xx", 503: "5xx", 42: "42"}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d)=%q, want %q", code, got, want)
		}
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := map[int]string{
		401: "unauthorized",
		403: "forbidden",
		404: "not_found",
		409: "conflict",
		429: "rate_limit",
		400: "client",
		502: "server",
	}
	for code, want := range tests {
		if got := categorizeStatus(code); got != want {
			t.Errorf("categorizeStatus(%d)=%q, want %q", code, got, want)
		}
	}
}
