package monitoring

import (
	"context"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracingProvider installs the process-wide tracer provider. Spans are
// exported over OTLP/HTTP when an endpoint is configured; either way their
// ids correlate request logs with error responses.
type TracingProvider struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracingProvider creates and installs a tracer provider
func NewTracingProvider(cfg *config.Config, logger *zap.Logger) *TracingProvider {
	logger = logger.Named("tracing")
	if !cfg.Monitoring.EnableTracing {
		logger.Info("Tracing is disabled")
		return &TracingProvider{tracer: noop.NewTracerProvider().Tracer(cfg.App.Name), logger: logger}
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.App.Name),
		attribute.String("service.version", cfg.App.Version),
		attribute.String("deployment.environment", cfg.App.Environment),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Monitoring.TraceSampleRate))),
	}
	if exporter := newExporter(cfg.Monitoring, logger); exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing initialized",
		zap.String("service", cfg.App.Name),
		zap.Float64("sampling_rate", cfg.Monitoring.TraceSampleRate),
	)

	return &TracingProvider{
		tracer:   tp.Tracer(cfg.App.Name),
		provider: tp,
		logger:   logger,
	}
}

// newExporter returns nil when no collector is configured or the exporter
// cannot be built
func newExporter(cfg config.MonitoringConfig, logger *zap.Logger) sdktrace.SpanExporter {
	if cfg.OTLPEndpoint == "" {
		return nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		logger.Warn("Failed to create OTLP exporter, spans stay in process", zap.Error(err))
		return nil
	}
	logger.Info("OTLP trace exporter configured", zap.String("endpoint", cfg.OTLPEndpoint))
	return exporter
}

// StartSpan starts a new span with the given name and options
func (t *TracingProvider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes and stops the provider
func (t *TracingProvider) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// RecordError marks the span in ctx as failed
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts the trace id for log correlation. It is
// empty when no sampled span is active.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
