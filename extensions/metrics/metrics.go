// Package metrics provides an extension recording per-fetch OpenTelemetry
// metrics. If no MeterProvider is configured, noop instruments are used and
// the extension becomes a pass-through.
//
// Instruments:
//   - fetchmesh.fetch.duration (Float64Histogram): seconds from the
//     requestWillFetch hook to the outcome, with attributes method, host,
//     outcome ("ok" or "error")
//   - fetchmesh.fetch.requests (Int64Counter): completed fetches, with the
//     same attributes
package metrics

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hupe1980/fetchmesh/core"
)

// meterName is the instrumentation scope name for fetchmesh metrics.
const meterName = "github.com/hupe1980/fetchmesh"

const (
	// DurationMetric is the name of the duration histogram.
	DurationMetric = "fetchmesh.fetch.duration"
	// RequestsMetric is the name of the fetch counter.
	RequestsMetric = "fetchmesh.fetch.requests"
)

var (
	_ core.RequestWillFetcher = (*Extension)(nil)
	_ core.FetchDidSucceeder  = (*Extension)(nil)
	_ core.FetchDidFailer     = (*Extension)(nil)
)

type startKey struct{}

// Extension records fetch counts and durations.
type Extension struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	now      func() time.Time
}

// New returns a metrics extension using the global MeterProvider.
func New() *Extension {
	return NewWithMeter(otel.Meter(meterName))
}

// NewWithMeter returns a metrics extension using the provided meter.
func NewWithMeter(meter metric.Meter) *Extension {
	duration, dErr := meter.Float64Histogram(
		DurationMetric,
		metric.WithDescription("Duration of fetches in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	requests, rErr := meter.Int64Counter(
		RequestsMetric,
		metric.WithDescription("Total number of completed fetches"),
		metric.WithUnit("{request}"),
	)
	_ = rErr // noop fallback guaranteed by OTel API contract

	return &Extension{duration: duration, requests: requests, now: time.Now}
}

// Name implements core.Extension.
func (e *Extension) Name() string { return "metrics" }

// RequestWillFetch implements core.RequestWillFetcher. It stamps the start
// time into the request context.
func (e *Extension) RequestWillFetch(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
	ctx := context.WithValue(p.Request.Context(), startKey{}, e.now())
	return p.Request.WithContext(ctx), nil
}

// FetchDidSucceed implements core.FetchDidSucceeder.
func (e *Extension) FetchDidSucceed(ctx context.Context, p core.FetchDidSucceedParams) (*http.Response, error) {
	e.record(ctx, p.Request, "ok", attribute.Int("status_code", p.Response.StatusCode))
	return nil, nil
}

// FetchDidFail implements core.FetchDidFailer.
func (e *Extension) FetchDidFail(ctx context.Context, p core.FetchDidFailParams) error {
	e.record(ctx, p.Request, "error")
	return nil
}

func (e *Extension) record(ctx context.Context, req *http.Request, outcome string, extra ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.String("method", req.Method),
		attribute.String("host", req.URL.Host),
		attribute.String("outcome", outcome),
	}, extra...)
	opt := metric.WithAttributes(attrs...)

	if start, ok := req.Context().Value(startKey{}).(time.Time); ok {
		e.duration.Record(ctx, e.now().Sub(start).Seconds(), opt)
	}
	e.requests.Add(ctx, 1, opt)
}
