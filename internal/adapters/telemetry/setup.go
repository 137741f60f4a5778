package telemetry

import (
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.trai.ch/zerr"
)

// TraceEnv selects the span exporter. "stdout" prints finished spans to
// stderr, anything else disables tracing.
const TraceEnv = "PICO_TRACE"

// InstrumentationName names the tracer pico creates.
const InstrumentationName = "go.trai.ch/pico"

// NewTracer builds a tracer from the environment.
func NewTracer() (*OTelTracer, error) {
	if os.Getenv(TraceEnv) != "stdout" {
		return NewOTelTracer(noop.NewTracerProvider(), InstrumentationName, nil), nil
	}
	return NewWriterTracer(os.Stderr)
}

// NewWriterTracer exports every finished span to w as indented JSON.
func NewWriterTracer(w io.Writer) (*OTelTracer, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create span exporter")
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	return NewOTelTracer(provider, InstrumentationName, provider.Shutdown), nil
}
