package tracing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/fetchmesh"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/extension"
	"github.com/hupe1980/fetchmesh/extensions/tracing"
	"github.com/hupe1980/fetchmesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracedMesh(tr core.Transmitter) (*fetchmesh.FetchMesh, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	fm := fetchmesh.New(func(o *fetchmesh.Options) {
		o.Transmitter = tr
		o.Tracing = tracing.NewWithTracer(tp.Tracer("test"))
	})
	return fm, sr
}

func TestTracing_LaterPreflightFailureLeavesNoOpenSpan(t *testing.T) {
	tr := &testutil.RecordingTransmitter{}
	fm, sr := newTracedMesh(tr)
	fm.Use(&extension.Funcs{
		ExtensionName: "reject",
		OnRequestWillFetch: func(context.Context, core.RequestWillFetchParams) (*http.Request, error) {
			return nil, errors.New("boom")
		},
	})

	_, err := fm.Get(context.Background(), "https://example.com/a")
	require.Error(t, err)
	assert.True(t, core.IsCode(err, core.CodePluginErrorRequestWillFetch))

	assert.Equal(t, len(sr.Started()), len(sr.Ended()))
	assert.Zero(t, tr.Count())
}

func TestTracing_LaterSuccessHookFailureMarksSpan(t *testing.T) {
	fm, sr := newTracedMesh(&testutil.RecordingTransmitter{})
	fm.Use(&extension.Funcs{
		ExtensionName: "reject-response",
		OnFetchDidSucceed: func(context.Context, core.FetchDidSucceedParams) (*http.Response, error) {
			return nil, errors.New("bad payload")
		},
	})

	_, err := fm.Get(context.Background(), "https://example.com/a")
	require.EqualError(t, err, "bad payload")

	require.Len(t, sr.Started(), 1)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "bad payload", spans[0].Status().Description)
}

func TestTracing_RunsLastThroughClient(t *testing.T) {
	tr := &testutil.RecordingTransmitter{}
	fm, sr := newTracedMesh(tr)
	fm.Use(&extension.Funcs{
		OnRequestWillFetch: func(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
			p.Request.Header.Del("Traceparent")
			return p.Request, nil
		},
	})

	resp, err := fm.Client().Get("https://example.com/c")
	require.NoError(t, err)
	_ = testutil.ReadBody(resp.Body)

	require.Len(t, sr.Ended(), 1)
	require.Equal(t, 1, tr.Count())
	assert.NotEmpty(t, tr.Calls()[0].Request.Header.Get("Traceparent"))
}

func TestTracing_RunsThroughHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Traceparent", r.Header.Get("Traceparent"))
	}))
	defer upstream.Close()

	fm, sr := newTracedMesh(nil)
	h, err := fm.Handler(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Seen-Traceparent"))
	assert.Len(t, sr.Ended(), 1)
}
