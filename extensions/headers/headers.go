// Package headers provides an extension that sets fixed headers on every
// outgoing request.
package headers

import (
	"context"
	"net/http"

	"github.com/hupe1980/fetchmesh/core"
)

var (
	_ core.Extension          = (*Extension)(nil)
	_ core.RequestWillFetcher = (*Extension)(nil)
)

// Extension sets its headers on the request, replacing existing values.
type Extension struct {
	header http.Header
}

// New creates a headers extension. Keys are canonicalized; the map is copied.
func New(headers map[string]string) *Extension {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}
	return &Extension{header: h}
}

// Name implements core.Extension.
func (e *Extension) Name() string { return "headers" }

// RequestWillFetch implements core.RequestWillFetcher.
func (e *Extension) RequestWillFetch(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
	if len(e.header) == 0 {
		return nil, nil
	}
	req := p.Request
	if req.Header == nil {
		req.Header = make(http.Header, len(e.header))
	}
	for k, vs := range e.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	return req, nil
}
