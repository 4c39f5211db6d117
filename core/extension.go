package core

import (
	"context"
	"net/http"
)

// Hook names a lifecycle point an extension may opt in to.
type Hook string

const (
	// HookRequestWillFetch runs before transmission and may replace the request.
	HookRequestWillFetch Hook = "requestWillFetch"
	// HookFetchDidSucceed runs after a successful transmission and may replace
	// the response.
	HookFetchDidSucceed Hook = "fetchDidSucceed"
	// HookFetchDidFail observes a failed attempt. It cannot alter the error.
	HookFetchDidFail Hook = "fetchDidFail"
)

// Extension is the base interface all extensions must implement. Extensions
// opt in to hooks by implementing the matching capability interface.
//
// Extension instances are shared across concurrent fetches and must be safe
// for concurrent use.
type Extension interface {
	// Name returns a human-readable name used in logs.
	Name() string
}

// RequestWillFetchParams is passed to RequestWillFetcher hooks.
type RequestWillFetchParams struct {
	// Request is an independent duplicate of the current request; the hook
	// may read or mutate it freely.
	Request *http.Request
	Event   Event
}

// FetchDidSucceedParams is passed to FetchDidSucceeder hooks.
type FetchDidSucceedParams struct {
	Event Event
	// Request is the request as it was sent (after every requestWillFetch hook).
	Request *http.Request
	// Response is the current response, possibly replaced by an earlier hook.
	Response *http.Response
}

// FetchDidFailParams is passed to FetchDidFailer hooks.
type FetchDidFailParams struct {
	Error error
	Event Event
	// OriginalRequest is a duplicate of the request before any hook ran.
	OriginalRequest *http.Request
	// Request is a duplicate of the request as it was sent.
	Request *http.Request
}

// RequestWillFetcher is implemented by extensions that observe or rewrite
// outgoing requests. Returning a nil request keeps the current one.
type RequestWillFetcher interface {
	RequestWillFetch(ctx context.Context, params RequestWillFetchParams) (*http.Request, error)
}

// FetchDidSucceeder is implemented by extensions that observe or rewrite
// responses. Returning a nil response keeps the current one.
type FetchDidSucceeder interface {
	FetchDidSucceed(ctx context.Context, params FetchDidSucceedParams) (*http.Response, error)
}

// FetchDidFailer is implemented by extensions that react to failed attempts.
type FetchDidFailer interface {
	FetchDidFail(ctx context.Context, params FetchDidFailParams) error
}

// CapabilitySet lets a type that implements more hook methods than it wants
// to advertise narrow its capability set.
type CapabilitySet interface {
	Implements(hook Hook) bool
}
