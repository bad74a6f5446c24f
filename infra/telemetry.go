package infra

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/easycollege/feedback-orchestrator/config"
)

// Telemetry owns the OTLP providers. When no collector endpoint is
// configured everything stays on the default no-op providers and Shutdown
// does nothing.
type Telemetry struct {
	loggerProvider *sdklog.LoggerProvider
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

func InitTelemetry(cfg *config.EnvConfig) *Telemetry {
	t := &Telemetry{}
	endpoint := cfg.Grafana.OTLPEndpoint
	if endpoint == "" {
		return t
	}

	ctx := context.Background()
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.Grafana.ServiceName),
		attribute.String("deployment.environment", cfg.Environment.Mode),
	)

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpoint(endpoint))
	if err != nil {
		log.Printf("Warning: OTLP log exporter unavailable: %v", err)
	} else {
		t.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(t.loggerProvider)
	}

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	if err != nil {
		log.Printf("Warning: OTLP trace exporter unavailable: %v", err)
	} else {
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.tracerProvider)
	}

	metricExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint))
	if err != nil {
		log.Printf("Warning: OTLP metric exporter unavailable: %v", err)
	} else {
		t.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(t.meterProvider)
		if err := runtime.Start(runtime.WithMeterProvider(t.meterProvider)); err != nil {
			log.Printf("Warning: runtime instrumentation failed: %v", err)
		}
	}

	return t
}

func (t *Telemetry) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if t.loggerProvider != nil {
		_ = t.loggerProvider.Shutdown(ctx)
	}
	if t.tracerProvider != nil {
		_ = t.tracerProvider.Shutdown(ctx)
	}
	if t.meterProvider != nil {
		_ = t.meterProvider.Shutdown(ctx)
	}
}
