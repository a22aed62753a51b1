package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config configures the telemetry exporter, following the shape of the
// teacher's telemetry.Config plus the OTLP sub-config its setup.go
// references.
type Config struct {
	// JaegerURL is the collector endpoint for the Jaeger exporter.
	JaegerURL string `yaml:"jaegerUrl"`
	// OTLP configures the OTLP/HTTP exporter; takes precedence over
	// JaegerURL when OTLP.Host is set.
	OTLP OTLPConfig `yaml:"otlp"`
	// Package names the service for the trace resource.
	Package string `yaml:"package"`
	// ID identifies this service instance.
	ID string `yaml:"id"`
}

// OTLPConfig configures the OTLP/HTTP trace exporter.
type OTLPConfig struct {
	Host   string `yaml:"host"`
	Secure bool   `yaml:"secure"`
}

// Setup configures OpenTelemetry tracing for the process: builds a
// resource from config.Package/ID, picks an exporter (OTLP over
// Jaeger, when both are configured), and installs the resulting
// provider as the global tracer provider.
func Setup(config Config) (*tracesdk.TracerProvider, error) {
	res, err := NewResource(config.Package, config.ID)
	if err != nil {
		return nil, err
	}

	exp, err := newExporter(config)
	if err != nil {
		return nil, err
	}

	tp := NewTracerProvider(exp, res)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}

func newExporter(config Config) (tracesdk.SpanExporter, error) {
	switch {
	case config.OTLP.Host != "":
		return NewOTLPExporter(config.OTLP)
	case config.JaegerURL != "":
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerURL)))
	default:
		return nil, fmt.Errorf("neither OTLP nor Jaeger URL is set")
	}
}

// NewTracerProvider assembles a TracerProvider that always samples and
// batches spans to exp.
func NewTracerProvider(exp tracesdk.SpanExporter, res *resource.Resource) *tracesdk.TracerProvider {
	return tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	)
}

// NewResource builds the trace resource identifying this service
// instance.
func NewResource(pkg, identifier string) (*resource.Resource, error) {
	if pkg == "" || identifier == "" {
		return nil, fmt.Errorf("empty resource name or identifier")
	}

	return resource.New(
		context.Background(),
		resource.WithContainer(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(pkg),
			attribute.String("ID", identifier),
		),
	)
}

// NewOTLPExporter builds an OTLP/HTTP span exporter from config.
func NewOTLPExporter(config OTLPConfig) (*otlptrace.Exporter, error) {
	switch {
	case config.Host == "":
		return nil, fmt.Errorf("OTLP host is not set")
	case strings.HasPrefix(config.Host, "http://"):
		return nil, fmt.Errorf("OTLP host must not contain the protocol")
	case strings.HasSuffix(config.Host, "/"):
		return nil, fmt.Errorf("OTLP host must not contain the path or trailing slashes")
	}

	options := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Host)}
	if !config.Secure {
		options = append(options, otlptracehttp.WithInsecure())
	}

	return otlptrace.New(context.Background(), otlptracehttp.NewClient(options...))
}
