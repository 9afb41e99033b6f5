package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/onflow/vm-runtime"

// Tracer starts spans for VM operations.
type Tracer struct {
	tracer otelTrace.Tracer
}

// NewTracer returns a tracer using spans of provider.
func NewTracer(provider otelTrace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: provider.Tracer(tracerName),
	}
}

// NewNoopTracer returns a tracer whose spans record nothing.
func NewNoopTracer() *Tracer {
	return NewTracer(noop.NewTracerProvider())
}

// StartSpanFromContext starts a span as a child of the span in ctx, if any.
func (t *Tracer) StartSpanFromContext(
	ctx context.Context,
	operationName SpanName,
	opts ...otelTrace.SpanStartOption,
) (
	otelTrace.Span,
	context.Context,
) {
	ctx, span := t.tracer.Start(ctx, string(operationName), opts...)
	return span, ctx
}

// StartSpanFromParent starts a span as a child of parentSpan.
func (t *Tracer) StartSpanFromParent(
	parentSpan otelTrace.Span,
	operationName SpanName,
	opts ...otelTrace.SpanStartOption,
) otelTrace.Span {
	ctx := otelTrace.ContextWithSpan(context.Background(), parentSpan)
	_, span := t.tracer.Start(ctx, string(operationName), opts...)
	return span
}

// WithSpanFromContext runs f within a span started from ctx.
func (t *Tracer) WithSpanFromContext(
	ctx context.Context,
	operationName SpanName,
	f func(),
	opts ...otelTrace.SpanStartOption,
) {
	span, _ := t.StartSpanFromContext(ctx, operationName, opts...)
	defer span.End()

	f()
}

// TransactionAttributes returns the attributes attached to transaction spans.
func TransactionAttributes(txID string, txIndex int) otelTrace.SpanStartOption {
	return otelTrace.WithAttributes(
		attribute.String("transaction_id", txID),
		attribute.Int("transaction_index", txIndex),
	)
}
