// Package tracing provides an extension that wraps every fetch in an
// OpenTelemetry client span.
//
// The span starts in requestWillFetch, with the request context as parent,
// and the request handed on carries the span context together with W3C trace
// headers. fetchDidSucceed ends the span (5xx responses mark it as error);
// fetchDidFail records the error and ends it. If no TracerProvider is
// configured globally the noop tracer makes the extension a pass-through.
//
// The extension must run after every other requestWillFetch and
// fetchDidSucceed extension. A later requestWillFetch failure never reaches
// fetchDidFail, and a later fetchDidSucceed failure would find the span
// already ended. Register it last on a bare engine; fetchmesh.Options.Tracing
// keeps it behind extensions added with Use or per call.
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/fetchmesh/core"
)

// tracerName is the instrumentation scope name for fetchmesh tracing.
const tracerName = "github.com/hupe1980/fetchmesh"

// SpanName is the name of the span started per fetch.
const SpanName = "fetchmesh.fetch"

var (
	_ core.RequestWillFetcher = (*Extension)(nil)
	_ core.FetchDidSucceeder  = (*Extension)(nil)
	_ core.FetchDidFailer     = (*Extension)(nil)
)

// Extension records one span per fetch.
type Extension struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New returns a tracing extension using the global TracerProvider. It must be
// the last extension of a fetch; see the package documentation.
func New() *Extension {
	return NewWithTracer(otel.Tracer(tracerName))
}

// NewWithTracer returns a tracing extension using the provided tracer.
func NewWithTracer(tracer trace.Tracer) *Extension {
	return &Extension{
		tracer: tracer,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
}

// Name implements core.Extension.
func (e *Extension) Name() string { return "tracing" }

// RequestWillFetch implements core.RequestWillFetcher.
func (e *Extension) RequestWillFetch(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
	req := p.Request

	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL.String()),
		attribute.Bool("fetchmesh.navigation", core.IsNavigation(req)),
	}
	if host := req.URL.Hostname(); host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	if ev, ok := p.Event.(*core.FetchEvent); ok && ev != nil && ev.ClientID != "" {
		attrs = append(attrs, attribute.String("fetchmesh.client_id", ev.ClientID))
	}

	ctx, _ := e.tracer.Start(req.Context(), SpanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	out := req.WithContext(ctx)
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	e.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))

	return out, nil
}

// FetchDidSucceed implements core.FetchDidSucceeder.
func (e *Extension) FetchDidSucceed(_ context.Context, p core.FetchDidSucceedParams) (*http.Response, error) {
	span := trace.SpanFromContext(p.Request.Context())
	if !span.IsRecording() {
		return nil, nil
	}

	status := p.Response.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	return nil, nil
}

// FetchDidFail implements core.FetchDidFailer.
func (e *Extension) FetchDidFail(_ context.Context, p core.FetchDidFailParams) error {
	span := trace.SpanFromContext(p.Request.Context())
	if !span.IsRecording() {
		return nil
	}

	span.RecordError(p.Error)
	span.SetStatus(codes.Error, p.Error.Error())
	span.End()

	return nil
}
