package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"yarnpull/internal/config"
)

const (
	ServiceName = "yarn-pullout-analyzer"
	TracerName  = "yarnpull"
)

// TracingProvider holds the tracer provider and the resources it owns
type TracingProvider struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
	file           *os.File
	logger         *slog.Logger
}

// InitializeTracing sets up OpenTelemetry tracing and installs the global tracer provider.
// When tracing is disabled the global no-op provider stays in place and the returned
// provider's Shutdown does nothing.
func InitializeTracing(cfg config.TracingConfig, logger *slog.Logger) (*TracingProvider, error) {
	if logger == nil {
		logger = GetLogger()
	}
	p := &TracingProvider{logger: logger}

	if !cfg.Enabled || cfg.Exporter == "none" {
		p.Tracer = otel.Tracer(TracerName)
		return p, nil
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		p.file = f
		w = f
	}

	tp, err := newTracerProvider(cfg, w)
	if err != nil {
		p.closeFile()
		return nil, err
	}
	p.TracerProvider = tp
	p.Tracer = tp.Tracer(TracerName, trace.WithInstrumentationVersion(config.AppVersion))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing initialized",
		slog.String("exporter", cfg.Exporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return p, nil
}

// newTracerProvider creates a tracer provider exporting spans as JSON to w
func newTracerProvider(cfg config.TracingConfig, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

// Shutdown flushes pending spans and releases the exporter
func (p *TracingProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	defer p.closeFile()
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		p.logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (p *TracingProvider) closeFile() {
	if p.file != nil {
		_ = p.file.Close()
		p.file = nil
	}
}

// StartSpan starts a span on the global tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
