package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/xraph/vexsync"

// Tracer provides OpenTelemetry tracing for vexsync.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

func (t *Tracer) get() trace.Tracer {
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return t.tracer
}

// StartPassSpan starts a span for one sync pass.
func (t *Tracer) StartPassSpan(ctx context.Context, kind, passID string, program, season int) (context.Context, trace.Span) {
	return t.get().Start(ctx, "vexsync.sync."+kind,
		trace.WithAttributes(
			attribute.String("vexsync.pass_id", passID),
			attribute.Int("vexsync.program", program),
			attribute.Int("vexsync.season", season),
		),
	)
}

// StartFetchSpan starts a client span for one remote request.
func (t *Tracer) StartFetchSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return t.get().Start(ctx, "vexsync.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}

// StartNotifySpan starts a span for one notification fan-out.
func (t *Tracer) StartNotifySpan(ctx context.Context, notifyID string, channels int) (context.Context, trace.Span) {
	return t.get().Start(ctx, "vexsync.notify",
		trace.WithAttributes(
			attribute.String("vexsync.notify_id", notifyID),
			attribute.Int("vexsync.channels", channels),
		),
	)
}

// EndSpan ends span, recording err when non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
