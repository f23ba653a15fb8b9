package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry holds all telemetry instruments and providers. A nil or disabled
// Telemetry is safe to use; every recorder becomes a no-op.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
	tracer        trace.Tracer
	meter         metric.Meter
	exporter      *prometheus.Exporter

	// RED Metrics (Rate, Errors, Duration)
	httpRequestsTotal    metric.Int64Counter
	httpRequestDuration  metric.Float64Histogram
	httpRequestsInFlight metric.Int64UpDownCounter

	// Flood metrics
	clientOperationsTotal   metric.Int64Counter
	clientOperationDuration metric.Float64Histogram
	clientErrors            metric.Int64Counter
	loginsTotal             metric.Int64Counter
	sessionsInvalidated     metric.Int64Counter
	grabsTotal              metric.Int64Counter

	dbOperationsTotal   metric.Int64Counter
	dbOperationDuration metric.Float64Histogram
}

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// OTLPEndpoint, when set, also pushes metrics over OTLP gRPC.
	OTLPEndpoint string
	OTLPInterval time.Duration
}

// New creates a new telemetry instance.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled {
		return &Telemetry{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(exporter)}

	if cfg.OTLPEndpoint != "" {
		otlpExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}

		var readerOpts []sdkmetric.PeriodicReaderOption
		if cfg.OTLPInterval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.OTLPInterval))
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExporter, readerOpts...)))
	}

	meterProvider := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(meterProvider)

	t := &Telemetry{
		meterProvider: meterProvider,
		tracer:        otel.Tracer(cfg.ServiceName),
		meter:         meterProvider.Meter(cfg.ServiceName, metric.WithInstrumentationVersion(cfg.ServiceVersion)),
		exporter:      exporter,
	}

	if err := t.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// go runtime metrics: memory, goroutines, gc
	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		return nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	return t, nil
}

// Tracer returns the OpenTelemetry tracer.
func (t *Telemetry) Tracer() trace.Tracer {
	if t == nil || t.tracer == nil {
		return otel.Tracer("")
	}

	return t.tracer
}

// RecordHTTPRequest records HTTP request metrics.
func (t *Telemetry) RecordHTTPRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	if t == nil || t.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)

	t.httpRequestsTotal.Add(ctx, 1, attrs)
	t.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// IncrementHTTPInFlight increments in-flight HTTP requests.
func (t *Telemetry) IncrementHTTPInFlight(ctx context.Context) {
	if t == nil || t.httpRequestsInFlight == nil {
		return
	}

	t.httpRequestsInFlight.Add(ctx, 1)
}

// DecrementHTTPInFlight decrements in-flight HTTP requests.
func (t *Telemetry) DecrementHTTPInFlight(ctx context.Context) {
	if t == nil || t.httpRequestsInFlight == nil {
		return
	}

	t.httpRequestsInFlight.Add(ctx, -1)
}

// RecordClientOperation records download client operation metrics.
func (t *Telemetry) RecordClientOperation(ctx context.Context, client, operation, status string, duration time.Duration) {
	if t == nil || t.clientOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	t.clientOperationsTotal.Add(ctx, 1, attrs)
	t.clientOperationDuration.Record(ctx, duration.Seconds(), attrs)

	if status != statusSuccess {
		t.clientErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("client", client),
			attribute.String("operation", operation),
			attribute.String("reason", status),
		))
	}
}

// RecordLogin counts a login round-trip to Flood.
func (t *Telemetry) RecordLogin(ctx context.Context, status string) {
	if t == nil || t.loginsTotal == nil {
		return
	}

	t.loginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSessionInvalidated counts sessions dropped after Flood rejected them.
func (t *Telemetry) RecordSessionInvalidated(ctx context.Context) {
	if t == nil || t.sessionsInvalidated == nil {
		return
	}

	t.sessionsInvalidated.Add(ctx, 1)
}

// RecordGrab counts items handed to the download client, by source kind.
func (t *Telemetry) RecordGrab(ctx context.Context, kind, status string) {
	if t == nil || t.grabsTotal == nil {
		return
	}

	t.grabsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordDBOperation records database operation metrics.
func (t *Telemetry) RecordDBOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if t == nil || t.dbOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	t.dbOperationsTotal.Add(ctx, 1, attrs)
	t.dbOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// Handler returns the HTTP handler for metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	if t == nil || t.exporter == nil {
		return http.NotFoundHandler()
	}

	return promhttp.Handler()
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.meterProvider == nil {
		return nil
	}

	return t.meterProvider.Shutdown(ctx)
}

func (t *Telemetry) initializeMetrics() error {
	var errs []error

	counter := func(name, desc string) metric.Int64Counter {
		c, err := t.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s counter: %w", name, err))
		}

		return c
	}

	histogram := func(name, desc string) metric.Float64Histogram {
		h, err := t.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s histogram: %w", name, err))
		}

		return h
	}

	t.httpRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	t.httpRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds")

	inFlight, err := t.meter.Int64UpDownCounter(
		"http_requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to create http_requests_in_flight counter: %w", err))
	}

	t.httpRequestsInFlight = inFlight

	t.clientOperationsTotal = counter("client_operations_total", "Total number of download client operations")
	t.clientOperationDuration = histogram("client_operation_duration_seconds", "Download client operation duration in seconds")
	t.clientErrors = counter("client_errors_total", "Total number of download client errors")
	t.loginsTotal = counter("flood_logins_total", "Total number of Flood login round-trips")
	t.sessionsInvalidated = counter("flood_sessions_invalidated_total", "Total number of Flood sessions dropped after a rejection")
	t.grabsTotal = counter("grabs_total", "Total number of items sent to the download client")

	t.dbOperationsTotal = counter("db_operations_total", "Total number of database operations")
	t.dbOperationDuration = histogram("db_operation_duration_seconds", "Database operation duration in seconds")

	return errors.Join(errs...)
}
