package middleware

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for the storefront client.
const defaultTracerName = "storefront"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "storefront").
	TracerName string

	// Propagate injects trace context headers into outgoing requests.
	// Enabled by default.
	Propagate bool

	// Filter determines which requests to trace.
	// If nil, all requests are traced.
	Filter func(req *http.Request) bool

	// TracerProvider overrides the global provider (mainly for tests).
	TracerProvider trace.TracerProvider

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithPropagation enables or disables trace header injection.
func WithPropagation(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.Propagate = enabled
	}
}

// WithRequestFilter sets a filter function for requests.
func WithRequestFilter(filter func(req *http.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		Propagate:  true,
	}
}

// OpenTelemetry creates transport middleware that opens a client span for
// every backend call.
//
// Spans are named "storefront <op>" and carry the method, path, operation
// and response status. Configure the global tracer provider in main()
// before building the client; without one the global no-op provider is used.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if config.Filter != nil && !config.Filter(req) {
				return next.RoundTrip(req)
			}

			op := Operation(req.Context())
			ctx, span := config.tracer.Start(
				req.Context(),
				fmt.Sprintf("%s %s", config.TracerName, op),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("url.path", req.URL.Path),
					attribute.String("storefront.op", op),
				),
			)
			defer span.End()

			req = req.Clone(ctx)
			if config.Propagate {
				otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
			}

			resp, err := next.RoundTrip(req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			if resp.StatusCode >= 500 {
				span.SetStatus(codes.Error, resp.Status)
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return resp, nil
		})
	}
}
