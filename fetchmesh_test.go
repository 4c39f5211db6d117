package fetchmesh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/fetchmesh/config"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/extensions/headers"
	"github.com/hupe1980/fetchmesh/internal/testutil"
	"github.com/hupe1980/fetchmesh/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	fm := New()
	assert.NotNil(t, fm.Engine())
	assert.NotNil(t, fm.Logger())
	assert.Nil(t, fm.Journal())
}

func TestGet_RunsRegisteredExtensions(t *testing.T) {
	tr := &testutil.RecordingTransmitter{}
	fm := New(func(o *Options) { o.Transmitter = tr })
	fm.Use(headers.New(map[string]string{"X-Team": "mesh"}))

	resp, err := fm.Get(context.Background(), "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "ok", testutil.ReadBody(resp.Body))

	calls := tr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "mesh", calls[0].Request.Header.Get("X-Team"))
	assert.Equal(t, "/x", calls[0].Request.URL.Path)
}

func TestFetch_DefaultOptions(t *testing.T) {
	tr := &testutil.RecordingTransmitter{}
	opts := &core.FetchOptions{Timeout: time.Second}
	fm := New(func(o *Options) {
		o.Transmitter = tr
		o.FetchOptions = opts
	})

	_, err := fm.Get(context.Background(), "https://example.com/")
	require.NoError(t, err)

	override := &core.FetchOptions{Redirect: core.RedirectManual}
	_, err = fm.Fetch(context.Background(), engine.FetchParams{URL: "https://example.com/", Options: override})
	require.NoError(t, err)

	calls := tr.Calls()
	require.Len(t, calls, 2)
	assert.Same(t, opts, calls[0].Options)
	assert.Same(t, override, calls[1].Options)
}

func TestJournal_RecordsFailures(t *testing.T) {
	boom := errors.New("connection refused")
	store := journal.NewInMemoryStore(10)
	fm := New(func(o *Options) {
		o.Transmitter = &testutil.RecordingTransmitter{
			Respond: func(*http.Request) (*http.Response, error) { return nil, boom },
		}
		o.Journal = store
	})

	_, err := fm.Get(context.Background(), "https://example.com/down")
	assert.ErrorIs(t, err, boom)

	entries, err := fm.Journal().Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/down", entries[0].URL)
	assert.Equal(t, "connection refused", entries[0].Error)
}

func TestClient_UsesEngine(t *testing.T) {
	tr := &testutil.RecordingTransmitter{}
	fm := New(func(o *Options) { o.Transmitter = tr })
	fm.Use(headers.New(map[string]string{"X-Via": "client"}))

	resp, err := fm.Client().Get("https://example.com/c")
	require.NoError(t, err)
	_ = testutil.ReadBody(resp.Body)

	calls := tr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "client", calls[0].Request.Header.Get("X-Via"))
}

func TestNewFromConfig_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("X-Seen-Tenant", r.Header.Get("X-Tenant"))
		_, _ = io.WriteString(w, r.URL.Path)
	}))
	defer srv.Close()

	off := false
	cfg := &config.Config{
		Transport: config.TransportConfig{BaseURL: srv.URL + "/api"},
		Headers:   map[string]string{"X-Tenant": "acme"},
		Extensions: config.ExtensionsConfig{
			Journal: &off,
		},
	}

	var buf bytes.Buffer
	fm, err := NewFromConfig(cfg, func(o *Options) {
		o.Logger = NewLogger(config.LogConfig{Level: "debug", Format: "json", Backend: config.BackendSlog}, &buf)
	})
	require.NoError(t, err)
	assert.Nil(t, fm.Journal())

	resp, err := fm.Get(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.DefaultUserAgent, resp.Header.Get("X-Seen-Agent"))
	assert.Equal(t, "acme", resp.Header.Get("X-Seen-Tenant"))
	assert.Equal(t, "/api/ping", testutil.ReadBody(resp.Body))
	assert.Contains(t, buf.String(), "Fetch completed")
}

func TestNewFromConfig_JournalDefaultOn(t *testing.T) {
	fm, err := NewFromConfig(&config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, fm.Journal())
}

func TestNewFromConfig_Invalid(t *testing.T) {
	_, err := NewFromConfig(&config.Config{Log: config.LogConfig{Backend: "syslog"}})
	assert.Error(t, err)

	_, err = NewFromConfig(&config.Config{Transport: config.TransportConfig{Redirect: "sometimes"}})
	assert.Error(t, err)
}

func TestNewLogger_Backends(t *testing.T) {
	for _, backend := range []string{config.BackendSlog, config.BackendZerolog, config.BackendLogrus} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(config.LogConfig{Level: "info", Format: "json", Backend: backend}, &buf)

			log.Debug("hidden")
			log.Info("visible", "url", "https://example.com")

			out := buf.String()
			assert.NotContains(t, out, "hidden")
			assert.Contains(t, out, "visible")
			assert.Contains(t, out, "https://example.com")
		})
	}
}

func TestHandler_Proxies(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "upstream:"+r.URL.Path)
	}))
	defer upstream.Close()

	fm := New()
	h, err := fm.Handler(upstream.URL)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream:/hello", rec.Body.String())
}

func TestHandler_InvalidUpstream(t *testing.T) {
	_, err := New().Handler("not a url")
	assert.Error(t, err)
}
