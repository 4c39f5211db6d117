package engine

import (
	"net/http"

	"github.com/hupe1980/fetchmesh/core"
)

// Transport is an http.RoundTripper that sends every request through an
// Engine, so any *http.Client gains the engine's extensions.
type Transport struct {
	Engine *Engine
	// Options are handed to the transmitter for non-navigation requests.
	Options *core.FetchOptions
	// Extensions run after the engine's registered ones.
	Extensions []core.Extension
}

var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip implements http.RoundTripper. The caller's request is not
// modified; extensions operate on a clone. The request body is closed when
// the fetch fails.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, core.ErrNilRequest
	}
	resp, err := t.Engine.Fetch(req.Context(), FetchParams{
		Request:    req.Clone(req.Context()),
		Options:    t.Options,
		Extensions: t.Extensions,
	})
	if err != nil && req.Body != nil {
		// Duplicates replay through GetBody, so a fetch that stopped before
		// transmission leaves the caller's body unread and open.
		_ = req.Body.Close()
	}
	return resp, err
}

// Client returns an *http.Client whose requests go through e.
func (e *Engine) Client() *http.Client {
	return &http.Client{Transport: &Transport{Engine: e}}
}
