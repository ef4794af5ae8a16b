// Package observability configures OpenTelemetry tracing.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/abhisek/recall/internal/config"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs a global tracer provider. With tracing disabled it
// returns a no-op shutdown and leaves the global no-op provider in place.
// Without an endpoint spans are written to stdout.
func Init(ctx context.Context, cfg config.TracingConfig, version string, log logrus.FieldLogger) (Shutdown, error) {
	if !cfg.Enabled {
		return noop, nil
	}
	return initWith(ctx, cfg, version, log, nil)
}

func initWith(ctx context.Context, cfg config.TracingConfig, version string, log logrus.FieldLogger, stdout io.Writer) (Shutdown, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "recall"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(version),
			attribute.String("service.component", "engine"),
		),
	)
	if err != nil {
		log.WithError(err).Warn("otel resource init failed (continuing)")
	}

	exporter, err := buildExporter(ctx, cfg, log, stdout)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.WithFields(logrus.Fields{
		"service":  name,
		"endpoint": cfg.Endpoint,
	}).Info("otel tracing initialized")
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, cfg config.TracingConfig, log logrus.FieldLogger, stdout io.Writer) (sdktrace.SpanExporter, error) {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if stdout != nil {
		opts = append(opts, stdouttrace.WithWriter(stdout))
	}
	return stdouttrace.New(opts...)
}
