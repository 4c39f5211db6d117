// Package transport provides the default host Transmitter for fetchmesh,
// backed by net/http. It performs exactly one transmission per call and
// applies core.FetchOptions (headers, redirect mode, timeout).
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hupe1980/fetchmesh/core"
)

// ErrRedirect is returned when a redirect is encountered in RedirectError mode.
var ErrRedirect = errors.New("transport: redirect not allowed")

// ErrRelativeURL is returned for a relative request URL when no BaseURL is set.
var ErrRelativeURL = errors.New("transport: relative url without base url")

// Options configure the HTTP transmitter.
type Options struct {
	// Client performs the transmission. Defaults to http.DefaultClient.
	Client *http.Client
	// BaseURL resolves relative request URLs such as "/x".
	BaseURL *url.URL
	// UserAgent is set when the outgoing request has none.
	UserAgent string
}

// HTTPTransmitter implements core.Transmitter on top of an *http.Client.
type HTTPTransmitter struct {
	opts Options
}

var _ core.Transmitter = (*HTTPTransmitter)(nil)

// New creates an HTTPTransmitter.
func New(optFns ...func(o *Options)) *HTTPTransmitter {
	opts := Options{Client: http.DefaultClient}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &HTTPTransmitter{opts: opts}
}

// Transmit implements core.Transmitter. The request body is consumed.
func (t *HTTPTransmitter) Transmit(ctx context.Context, req *http.Request, opts *core.FetchOptions) (*http.Response, error) {
	if req == nil {
		return nil, core.ErrNilRequest
	}

	out := req.Clone(ctx)
	out.RequestURI = ""

	if !out.URL.IsAbs() {
		if t.opts.BaseURL == nil {
			return nil, fmt.Errorf("%w: %s", ErrRelativeURL, out.URL)
		}
		out.URL = t.opts.BaseURL.ResolveReference(out.URL)
		out.Host = ""
	}
	if t.opts.UserAgent != "" && out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.opts.UserAgent)
	}

	client := t.opts.Client
	var cancel context.CancelFunc
	if opts != nil {
		for k, vs := range opts.Header {
			out.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
		if opts.Redirect != "" && opts.Redirect != core.RedirectFollow {
			client = withRedirectMode(client, opts.Redirect)
		}
		if opts.Timeout > 0 {
			var tctx context.Context
			tctx, cancel = context.WithTimeout(out.Context(), opts.Timeout)
			out = out.WithContext(tctx)
		}
	}

	resp, err := client.Do(out)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	if cancel != nil {
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	}
	return resp, nil
}

func withRedirectMode(c *http.Client, mode core.RedirectMode) *http.Client {
	cp := *c
	switch mode {
	case core.RedirectManual:
		cp.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	case core.RedirectError:
		cp.CheckRedirect = func(req *http.Request, _ []*http.Request) error {
			return fmt.Errorf("%w: %s", ErrRedirect, req.URL)
		}
	}
	return &cp
}

// cancelOnClose releases a timeout context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// ParseBaseURL parses a base URL, ensuring a trailing slash on the path so
// relative references resolve beneath it.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must use http or https")
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
