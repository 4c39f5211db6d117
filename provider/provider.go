// Package provider routes LLM SDK traffic through a fetchmesh engine.
//
// The openai and anthropic subpackages expose SDK middleware that hands every
// HTTP call the SDK makes to engine.Fetch, so registered extensions (headers,
// tracing, metrics, journal, ...) see model API traffic like any other fetch.
// They also ship a small Completer for one-shot prompts.
package provider

import (
	"context"
	"net/http"

	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
)

// Info contains metadata about a completer.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", ...
}

// Completer sends a single user prompt and returns the text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Info() Info
}

// Next is the SDK's continuation: it performs the HTTP call.
type Next = func(*http.Request) (*http.Response, error)

// RouteOptions configure how SDK calls enter the engine.
type RouteOptions struct {
	// FetchOptions are handed to the transmitter. They only take effect when
	// the engine's transmitter is used instead of the SDK's own client.
	FetchOptions *core.FetchOptions
	// Extensions run after the engine's registered ones.
	Extensions []core.Extension
}

// Route sends req through e. The SDK's next function acts as the
// transmitter, so the SDK keeps its own HTTP client, retries and auth.
func Route(e *engine.Engine, req *http.Request, next Next, opts RouteOptions) (*http.Response, error) {
	return e.Fetch(req.Context(), engine.FetchParams{
		Request:    req,
		Options:    opts.FetchOptions,
		Extensions: opts.Extensions,
		Transmitter: core.TransmitterFunc(func(_ context.Context, r *http.Request, _ *core.FetchOptions) (*http.Response, error) {
			return next(r)
		}),
	})
}
