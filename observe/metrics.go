// Package observe provides observability primitives for storybook-mcp:
// OpenTelemetry metrics with a Prometheus exporter bridge, plus HTTP
// middleware tying request metrics to structured logs.
//
// A package-level default [Metrics] instance ([Default]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/uilens/storybook-mcp"

// Metrics holds all OpenTelemetry metric instruments for the server.
// All fields are safe for concurrent use.
type Metrics struct {
	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// CatalogFetchDuration tracks remote catalog fetch latency.
	CatalogFetchDuration metric.Float64Histogram

	// CatalogFetchErrors counts failed catalog fetches. Use with attribute:
	//   attribute.String("source", ...)
	CatalogFetchErrors metric.Int64Counter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// request/fetch latencies.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolExecutionDuration, err = m.Float64Histogram("storybookmcp.tool.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("storybookmcp.tool.calls",
		metric.WithDescription("Number of MCP tool invocations."),
	); err != nil {
		return nil, err
	}
	if met.CatalogFetchDuration, err = m.Float64Histogram("storybookmcp.catalog.fetch.duration",
		metric.WithDescription("Latency of remote catalog fetches."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CatalogFetchErrors, err = m.Int64Counter("storybookmcp.catalog.fetch.errors",
		metric.WithDescription("Number of failed catalog fetches."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("storybookmcp.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// ObserveToolCall records one tool execution. It satisfies the registry's
// observer hook.
func (m *Metrics) ObserveToolCall(ctx context.Context, tool, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	m.ToolCalls.Add(ctx, 1, attrs)
	m.ToolExecutionDuration.Record(ctx, seconds, attrs)
}

// ObserveCatalogFetch records one catalog fetch.
func (m *Metrics) ObserveCatalogFetch(ctx context.Context, source string, seconds float64, err error) {
	m.CatalogFetchDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("source", source)))
	if err != nil {
		m.CatalogFetchErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("source", source)))
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
	defaultErr     error
)

// Default returns the process-wide [Metrics] instance backed by the global
// OTel meter provider. Initialised lazily on first use.
func Default() (*Metrics, error) {
	defaultOnce.Do(func() {
		defaultMetrics, defaultErr = NewMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics, defaultErr
}
