// Package middleware provides HTTP transport middleware for the storefront
// client.
//
// This package includes:
//   - OpenTelemetry client spans for every backend call
//   - Prometheus metrics for API calls, bus traffic, hydration and mutations
//
// Middleware wraps an http.RoundTripper and is composed with Chain:
//
//	hc := &http.Client{
//	    Timeout: 10 * time.Second,
//	    Transport: middleware.Chain(http.DefaultTransport,
//	        middleware.OpenTelemetry(),
//	        middleware.Prometheus(middleware.WithNamespace("shop")),
//	    ),
//	}
//
// # Operations
//
// Callers tag requests with a logical operation name so metrics do not
// explode on path parameters:
//
//	ctx = middleware.WithOperation(ctx, "remove_from_cart")
//
// # Recording Functions
//
// RecordPublish, RecordHydration and RecordMutation are no-ops until
// Prometheus has been called once.
package middleware
