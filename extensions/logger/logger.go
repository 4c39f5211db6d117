// Package logger provides an extension that logs every hook invocation.
package logger

import (
	"context"
	"net/http"

	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/logging"
)

var (
	_ core.RequestWillFetcher = (*Extension)(nil)
	_ core.FetchDidSucceeder  = (*Extension)(nil)
	_ core.FetchDidFailer     = (*Extension)(nil)
)

// Extension logs requests, responses and failures. It never replaces a
// request or response.
type Extension struct {
	logger logging.Logger
}

// New creates a logging extension. A nil logger discards everything.
func New(logger logging.Logger) *Extension {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Extension{logger: logger}
}

// Name implements core.Extension.
func (e *Extension) Name() string { return "logger" }

// RequestWillFetch implements core.RequestWillFetcher.
func (e *Extension) RequestWillFetch(_ context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
	e.logger.Debug("Request will fetch",
		"method", p.Request.Method,
		"url", p.Request.URL.String(),
		"navigation", core.IsNavigation(p.Request),
	)
	return nil, nil
}

// FetchDidSucceed implements core.FetchDidSucceeder.
func (e *Extension) FetchDidSucceed(_ context.Context, p core.FetchDidSucceedParams) (*http.Response, error) {
	e.logger.Info("Fetch did succeed",
		"method", p.Request.Method,
		"url", p.Request.URL.String(),
		"status", p.Response.StatusCode,
	)
	return nil, nil
}

// FetchDidFail implements core.FetchDidFailer.
func (e *Extension) FetchDidFail(_ context.Context, p core.FetchDidFailParams) error {
	args := []any{"url", p.Request.URL.String(), "error", p.Error}
	if p.OriginalRequest.URL.String() != p.Request.URL.String() {
		args = append(args, "original_url", p.OriginalRequest.URL.String())
	}
	e.logger.Warn("Fetch did fail", args...)
	return nil
}
