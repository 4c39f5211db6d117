package core

import (
	"context"
	"net/http"
	"time"

	"github.com/hupe1980/fetchmesh/logging"
)

// HeaderFetchMode is the request header that carries the fetch mode.
const HeaderFetchMode = "Sec-Fetch-Mode"

// ModeNavigate is the fetch mode of a top-level navigation.
const ModeNavigate = "navigate"

// IsNavigation reports whether r is a top-level navigation request.
func IsNavigation(r *http.Request) bool {
	return r != nil && r.Header.Get(HeaderFetchMode) == ModeNavigate
}

// MarkNavigation flags r as a top-level navigation request.
func MarkNavigation(r *http.Request) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(HeaderFetchMode, ModeNavigate)
}

// RedirectMode controls how a transmitter treats redirects.
type RedirectMode string

const (
	// RedirectFollow follows redirects (the default).
	RedirectFollow RedirectMode = "follow"
	// RedirectError fails the transmission on a redirect.
	RedirectError RedirectMode = "error"
	// RedirectManual returns the redirect response as is.
	RedirectManual RedirectMode = "manual"
)

// FetchOptions is the fetch configuration handed to the transmitter. The
// engine never interprets it; navigation requests are transmitted without it.
type FetchOptions struct {
	// Header entries are set on the outgoing request, replacing existing values.
	Header http.Header
	// Redirect selects the redirect policy. Empty means RedirectFollow.
	Redirect RedirectMode
	// Timeout bounds the transmission including reading the body. Zero means
	// no transmitter-side limit.
	Timeout time.Duration
}

// Transmitter is the host-provided network primitive. It performs exactly one
// transmission of req and either returns a response or fails.
type Transmitter interface {
	Transmit(ctx context.Context, req *http.Request, opts *FetchOptions) (*http.Response, error)
}

// TransmitterFunc adapts a function to the Transmitter interface.
type TransmitterFunc func(ctx context.Context, req *http.Request, opts *FetchOptions) (*http.Response, error)

// Transmit calls f(ctx, req, opts).
func (f TransmitterFunc) Transmit(ctx context.Context, req *http.Request, opts *FetchOptions) (*http.Response, error) {
	return f(ctx, req, opts)
}

// FetchContext is the ephemeral bundle of one engine invocation. It lives only
// for the duration of a single Fetch call.
type FetchContext struct {
	*loggerAdapter

	ID         string
	Request    *http.Request
	Event      Event
	Options    *FetchOptions
	Extensions []Extension
	StartedAt  time.Time
}

// NewFetchContext constructs a FetchContext whose log helpers tag every
// entry with the fetch id.
func NewFetchContext(
	id string,
	req *http.Request,
	event Event,
	opts *FetchOptions,
	extensions []Extension,
	logger logging.Logger,
) *FetchContext {
	return &FetchContext{
		loggerAdapter: newLoggerAdapter(logger, "fetch_id", id),
		ID:            id,
		Request:       req,
		Event:         event,
		Options:       opts,
		Extensions:    extensions,
		StartedAt:     time.Now(),
	}
}

// Elapsed returns the time since the fetch started.
func (fc *FetchContext) Elapsed() time.Duration { return time.Since(fc.StartedAt) }

// Context returns the request's context, or context.Background if the
// request is nil.
func (fc *FetchContext) Context() context.Context {
	if fc.Request == nil {
		return context.Background()
	}
	return fc.Request.Context()
}
