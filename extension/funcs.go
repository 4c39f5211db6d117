package extension

import (
	"context"
	"net/http"

	"github.com/hupe1980/fetchmesh/core"
)

// Compile-time interface checks.
var (
	_ core.Extension          = (*Funcs)(nil)
	_ core.RequestWillFetcher = (*Funcs)(nil)
	_ core.FetchDidSucceeder  = (*Funcs)(nil)
	_ core.FetchDidFailer     = (*Funcs)(nil)
	_ core.CapabilitySet      = (*Funcs)(nil)
)

// Funcs wraps plain functions as an extension. Only the hooks with a non-nil
// function are advertised; a nil *Funcs advertises none.
//
// Example:
//
//	reqID := &extension.Funcs{
//	    ExtensionName: "request-id",
//	    OnRequestWillFetch: func(ctx context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
//	        p.Request.Header.Set("X-Request-Id", uuid.NewString())
//	        return p.Request, nil
//	    },
//	}
type Funcs struct {
	ExtensionName      string
	OnRequestWillFetch func(ctx context.Context, p core.RequestWillFetchParams) (*http.Request, error)
	OnFetchDidSucceed  func(ctx context.Context, p core.FetchDidSucceedParams) (*http.Response, error)
	OnFetchDidFail     func(ctx context.Context, p core.FetchDidFailParams) error
}

// Name implements core.Extension.
func (f *Funcs) Name() string {
	if f == nil || f.ExtensionName == "" {
		return "funcs"
	}
	return f.ExtensionName
}

// Implements implements core.CapabilitySet.
func (f *Funcs) Implements(hook core.Hook) bool {
	if f == nil {
		return false
	}
	switch hook {
	case core.HookRequestWillFetch:
		return f.OnRequestWillFetch != nil
	case core.HookFetchDidSucceed:
		return f.OnFetchDidSucceed != nil
	case core.HookFetchDidFail:
		return f.OnFetchDidFail != nil
	default:
		return false
	}
}

// RequestWillFetch implements core.RequestWillFetcher.
func (f *Funcs) RequestWillFetch(ctx context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
	if f == nil || f.OnRequestWillFetch == nil {
		return nil, nil
	}
	return f.OnRequestWillFetch(ctx, p)
}

// FetchDidSucceed implements core.FetchDidSucceeder.
func (f *Funcs) FetchDidSucceed(ctx context.Context, p core.FetchDidSucceedParams) (*http.Response, error) {
	if f == nil || f.OnFetchDidSucceed == nil {
		return nil, nil
	}
	return f.OnFetchDidSucceed(ctx, p)
}

// FetchDidFail implements core.FetchDidFailer.
func (f *Funcs) FetchDidFail(ctx context.Context, p core.FetchDidFailParams) error {
	if f == nil || f.OnFetchDidFail == nil {
		return nil
	}
	return f.OnFetchDidFail(ctx, p)
}
