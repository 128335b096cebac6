package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/config"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestInitTracing_Disabled(t *testing.T) {
	prev := otel.GetTracerProvider()

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Error("InitTracing() replaced the global provider while disabled")
	}
}

func TestInitTracing_StderrExporter(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, SampleRatio: 1}, "test")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("global provider = %T, want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestStartSpan_EndSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, parent := StartSpan(context.Background(), "pipeline.run")
	if TraceID(ctx) == "" {
		t.Error("TraceID() empty inside a span")
	}
	_, child := StartSpan(ctx, "load")
	EndSpan(child, errors.New("boom"))
	EndSpan(parent, nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "load" || spans[0].Status().Code != codes.Error || spans[0].Status().Description != "boom" {
		t.Errorf("child span = %s %+v, want load with error status", spans[0].Name(), spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("child span recorded no error event")
	}
	if spans[1].Status().Code != codes.Unset {
		t.Errorf("parent status = %v, want Unset", spans[1].Status().Code)
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("load span is not a child of pipeline.run")
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}
}
