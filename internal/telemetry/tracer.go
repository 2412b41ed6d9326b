// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package telemetry carries the OpenTelemetry spans and decision metrics of
// the playback packages.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of spans and instruments.
const TracerName = "github.com/ManuGH/playresilience"

// Span names.
const (
	SpanFailover       = "sources.failover"
	SpanManifestReload = "manifest.reload"
)

const shutdownTimeout = 5 * time.Second

// Config holds telemetry configuration.
type Config struct {
	Enabled bool

	ServiceName    string
	ServiceVersion string
	Environment    string

	// Strategy and LiveSupport are the session defaults of the process.
	// They end up on the resource so traces can be split by player setup.
	Strategy    string
	LiveSupport string

	// ExporterType is "grpc" or "http".
	ExporterType string
	Endpoint     string

	// SamplingRate is clamped to [0, 1].
	SamplingRate float64
}

// Provider owns the SDK tracer provider, if one was installed.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider installs the global tracer provider for cfg. A disabled config
// installs a noop provider so span helpers stay cheap.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{}, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(ResourceAttributes(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Provider{tp: tp}, nil
}

// ResourceAttributes describes the simulator process and its session defaults.
func ResourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	if cfg.Strategy != "" {
		attrs = append(attrs, attribute.String(StrategyKey, cfg.Strategy))
	}
	if cfg.LiveSupport != "" {
		attrs = append(attrs, attribute.String(LiveSupportKey, cfg.LiveSupport))
	}
	return attrs
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case "grpc":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC exporter: %w", err)
		}
		return exp, nil
	case "http":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s (supported: grpc, http)", cfg.ExporterType)
	}
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes pending spans. It is a no-op for a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return p.tp.Shutdown(ctx)
}

// Tracer returns the playback tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartFailover opens the span covering one accepted source rotation.
// The caller ends it once the new head is known.
func StartFailover(ctx context.Context, windowType, cdn string, candidates int, bufferingTimeout bool, serviceLocation string) (context.Context, trace.Span) {
	attrs := append(FailoverAttributes(cdn, candidates, bufferingTimeout, serviceLocation),
		attribute.String(WindowTypeKey, windowType))
	return Tracer().Start(ctx, SpanFailover, trace.WithAttributes(attrs...))
}

// EndFailover records where the rotation landed and ends the span.
func EndFailover(span trace.Span, newCDN string, remaining int) {
	span.SetAttributes(
		attribute.String(FailoverNewCDNKey, newCDN),
		attribute.Int(FailoverCandidatesKey, remaining),
	)
	span.End()
}

// StartManifestReload opens the span of one asynchronous manifest load.
func StartManifestReload(ctx context.Context, url string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, SpanManifestReload, trace.WithAttributes(ManifestAttributes(url, "")...))
}

// EndManifestReload closes a reload span with its outcome.
func EndManifestReload(span trace.Span, url, transferFormat string, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(ErrorAttributes("manifest_load")...)
		return
	}
	span.SetAttributes(ManifestAttributes(url, transferFormat)...)
}
