package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/extension"
	"github.com/hupe1980/fetchmesh/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const message = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20241022",
  "content": [{"type": "text", "text": "pong"}, {"type": "text", "text": "!"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 1, "output_tokens": 2}
}`

func TestCompleter_RoutesThroughEngine(t *testing.T) {
	var (
		seen http.Header
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		seen = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(message))
	}))
	t.Cleanup(srv.Close)

	var failures int
	e := engine.New(func(o *engine.Options) {
		o.Extensions = []core.Extension{&extension.Funcs{
			OnRequestWillFetch: func(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
				p.Request.Header.Set("X-Fetchmesh", "1")
				return p.Request, nil
			},
			OnFetchDidFail: func(context.Context, core.FetchDidFailParams) error {
				failures++
				return nil
			},
		}}
	})

	client := NewClient(e,
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	c := NewCompleter(&client)

	answer, err := c.Complete(context.Background(), "ping")
	require.NoError(t, err)

	assert.Equal(t, "pong!", answer)
	assert.Equal(t, "1", seen.Get("X-Fetchmesh"))
	assert.Equal(t, "test-key", seen.Get("X-Api-Key"))
	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.Equal(t, 0, failures)
	assert.Equal(t, provider.Info{Name: "claude-3-5-sonnet-20241022", Provider: "anthropic"}, c.Info())
}

func TestCompleter_TransmitFailureRunsFailureHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL + "/"
	srv.Close()

	var failures int
	e := engine.New(func(o *engine.Options) {
		o.Extensions = []core.Extension{&extension.Funcs{
			OnFetchDidFail: func(context.Context, core.FetchDidFailParams) error {
				failures++
				return nil
			},
		}}
	})

	client := NewClient(e,
		option.WithAPIKey("test-key"),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
	)

	_, err := NewCompleter(&client).Complete(context.Background(), "ping")
	require.Error(t, err)
	assert.Equal(t, 1, failures)
}
