package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/pico/internal/adapters/telemetry"
	"go.trai.ch/pico/internal/core/ports"
)

func setupRecorder(t *testing.T) (*tracetest.SpanRecorder, *telemetry.OTelTracer) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, telemetry.NewOTelTracer(tp, "test-tracer", tp.Shutdown)
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any)
	for _, a := range attrs {
		switch a.Value.Type() {
		case attribute.STRING:
			m[string(a.Key)] = a.Value.AsString()
		case attribute.INT64:
			m[string(a.Key)] = a.Value.AsInt64()
		case attribute.FLOAT64:
			m[string(a.Key)] = a.Value.AsFloat64()
		case attribute.BOOL:
			m[string(a.Key)] = a.Value.AsBool()
		case attribute.STRINGSLICE:
			m[string(a.Key)] = a.Value.AsStringSlice()
		}
	}
	return m
}

func TestOTelSpan_SetAttribute(t *testing.T) {
	sr, tracer := setupRecorder(t)

	_, span := tracer.Start(context.Background(), "attr-test")
	span.SetAttribute("str", "val")
	span.SetAttribute("int", 123)
	span.SetAttribute("int64", int64(456))
	span.SetAttribute("uint64", uint64(789))
	span.SetAttribute("float", 3.14)
	span.SetAttribute("bool", true)
	span.SetAttribute("slice", []string{"a", "b"})
	span.SetAttribute("unknown", struct{}{})
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "val", attrs["str"])
	assert.Equal(t, int64(123), attrs["int"])
	assert.Equal(t, int64(456), attrs["int64"])
	assert.Equal(t, int64(789), attrs["uint64"])
	assert.InEpsilon(t, 3.14, attrs["float"], 0.001)
	assert.Equal(t, true, attrs["bool"])
	assert.Equal(t, []string{"a", "b"}, attrs["slice"])
	assert.Equal(t, "{}", attrs["unknown"])
}

func TestOTelTracer_StartAttributes(t *testing.T) {
	sr, tracer := setupRecorder(t)

	_, span := tracer.Start(context.Background(), "compile",
		ports.WithAttribute("files", 3),
		ports.WithAttribute("mode", "watch"),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "compile", spans[0].Name())
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, int64(3), attrs["files"])
	assert.Equal(t, "watch", attrs["mode"])
}

func TestOTelTracer_NestedSpans(t *testing.T) {
	sr, tracer := setupRecorder(t)

	ctx, parent := tracer.Start(context.Background(), "build")
	_, child := tracer.Start(ctx, "scan")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "scan", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestOTelSpan_RecordError(t *testing.T) {
	sr, tracer := setupRecorder(t)

	_, span := tracer.Start(context.Background(), "failing")
	span.RecordError(errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestNewWriterTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := telemetry.NewWriterTracer(&buf)
	require.NoError(t, err)

	_, span := tracer.Start(context.Background(), "exported-span")
	span.End()

	require.NoError(t, tracer.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "exported-span"`)
}

func TestNewTracer_Disabled(t *testing.T) {
	t.Setenv(telemetry.TraceEnv, "")

	tracer, err := telemetry.NewTracer()
	require.NoError(t, err)

	ctx, span := tracer.Start(context.Background(), "ignored")
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()

	assert.NotNil(t, ctx)
	require.NoError(t, tracer.Shutdown(context.Background()))
}
