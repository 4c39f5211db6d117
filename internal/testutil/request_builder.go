package testutil

import (
	"context"
	"net/http"
	"strings"

	"github.com/hupe1980/fetchmesh/core"
)

// RequestBuilder helps construct requests with fluent chaining for tests.
// Example:
//
//	req := NewRequestBuilder("/x").Method("POST").Body("hi").Navigate().Build()
type RequestBuilder struct {
	method   string
	url      string
	body     string
	header   http.Header
	navigate bool
	ctx      context.Context
}

// NewRequestBuilder creates a builder for a GET request to url.
func NewRequestBuilder(url string) *RequestBuilder {
	return &RequestBuilder{
		method: http.MethodGet,
		url:    url,
		header: http.Header{},
		ctx:    context.Background(),
	}
}

// Method sets the HTTP method (chainable).
func (b *RequestBuilder) Method(m string) *RequestBuilder {
	b.method = m
	return b
}

// Body sets a string body (chainable). The body is single-read and has no
// GetBody, matching what arrives from a server.
func (b *RequestBuilder) Body(s string) *RequestBuilder {
	b.body = s
	return b
}

// Header sets a header value (chainable).
func (b *RequestBuilder) Header(k, v string) *RequestBuilder {
	b.header.Set(k, v)
	return b
}

// Navigate marks the request as a top-level navigation (chainable).
func (b *RequestBuilder) Navigate() *RequestBuilder {
	b.navigate = true
	return b
}

// Context sets the request context (chainable).
func (b *RequestBuilder) Context(ctx context.Context) *RequestBuilder {
	b.ctx = ctx
	return b
}

// Build returns the request. It panics on an unparsable URL.
func (b *RequestBuilder) Build() *http.Request {
	req, err := http.NewRequestWithContext(b.ctx, b.method, b.url, nil)
	if err != nil {
		panic(err)
	}
	if b.body != "" {
		req.Body = nopCloser{strings.NewReader(b.body)}
		req.ContentLength = int64(len(b.body))
	}
	for k, vs := range b.header {
		req.Header[k] = vs
	}
	if b.navigate {
		core.MarkNavigation(req)
	}
	return req
}
