// Package telemetry wraps OpenTelemetry tracing around the session's
// renegotiation cycles, adapted directly from the teacher's
// pkg/telemetry: the same Telemetry{span,context} handle with
// CreateChild/AddEvent/AddError/Fail/End, renamed from the SFU's
// service identity to this module's.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PackageName is the OpenTelemetry instrumentation name for this
// module's tracer.
const PackageName = "jingle-sessioncore"

var tracer = otel.Tracer(PackageName)

// Telemetry is a single span plus the context carrying it, so that
// CreateChild can start a properly-nested child span without the
// caller threading context.Context through by hand.
type Telemetry struct {
	span    trace.Span
	context context.Context //nolint:containedctx
}

// New starts a root span named name.
func New(ctx context.Context, name string, attributes ...attribute.KeyValue) *Telemetry {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attributes...))
	return &Telemetry{span: span, context: ctx}
}

// CreateChild starts a span nested under t.
func (t *Telemetry) CreateChild(name string, attributes ...attribute.KeyValue) *Telemetry {
	return New(t.context, name, attributes...)
}

// Context returns the span-carrying context, for capability calls that
// take a context.Context (e.g. the peer-connection/XMPP adapters).
func (t *Telemetry) Context() context.Context {
	return t.context
}

// AddEvent records a point-in-time annotation on the span.
func (t *Telemetry) AddEvent(text string, attributes ...attribute.KeyValue) {
	t.span.AddEvent(text, trace.WithAttributes(attributes...))
}

// AddError records err on the span without marking the span as failed.
func (t *Telemetry) AddError(err error) {
	t.span.RecordError(err)
}

// Fail marks the span as failed and records err.
func (t *Telemetry) Fail(err error) {
	t.span.SetStatus(codes.Error, err.Error())
	t.AddError(err)
}

// End closes the span. Safe to call at most once per Telemetry.
func (t *Telemetry) End() {
	t.span.End()
}
