package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/extension"
	"github.com/hupe1980/fetchmesh/logging"
	"github.com/hupe1980/fetchmesh/transport"
)

// Config defines tuning parameters for the Engine's logging behavior.
type Config struct {
	// LogFetches emits one entry per completed fetch (info on success,
	// warn on failure).
	LogFetches bool

	// LogHooks emits a debug entry per extension hook invocation.
	LogHooks bool
}

// DefaultConfig logs one entry per fetch and stays quiet about hooks.
var DefaultConfig = Config{
	LogFetches: true,
	LogHooks:   false,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	e := New(func(o *Options) {
//	    o.Transmitter = transport.New(func(o *transport.Options) { o.UserAgent = "svc/1.0" })
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Transmitter performs the network transmission. Defaults to a
	// net/http transmitter (transport.New()).
	Transmitter core.Transmitter

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Extensions are registered at construction, in order.
	Extensions []core.Extension
}

// Engine orchestrates single fetch attempts through registered extensions.
// All methods are safe for concurrent use.
type Engine struct {
	transmitter core.Transmitter
	logger      logging.Logger
	config      Config
	registry    *extension.Registry
}

// New creates a new Engine with sensible defaults.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Transmitter == nil {
		opts.Transmitter = transport.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine{
		transmitter: opts.Transmitter,
		logger:      opts.Logger,
		config:      opts.Config,
		registry:    extension.NewRegistry(opts.Extensions...),
	}
}

// Register appends extensions to the engine's registry. Registration order
// is dispatch order. Fetches already in flight are not affected.
func (e *Engine) Register(exts ...core.Extension) {
	e.registry.Register(exts...)
}

// Registry exposes the engine's extension registry.
func (e *Engine) Registry() *extension.Registry { return e.registry }

// Logger returns the engine's logger.
func (e *Engine) Logger() logging.Logger { return e.logger }

// FetchParams are the inputs of a single fetch.
type FetchParams struct {
	// Request to send. When nil, URL is turned into a GET request.
	Request *http.Request
	// URL is used only when Request is nil.
	URL string
	// Event that triggered the fetch. May be nil.
	Event core.Event
	// Options are handed to the transmitter unmodified (nil for navigations).
	Options *core.FetchOptions
	// Extensions run after the registered ones, for this fetch only.
	Extensions []core.Extension
	// Transmitter, when set, replaces the engine's transmitter for this fetch.
	Transmitter core.Transmitter
}

// FetchURL fetches rawURL with a GET request.
func (e *Engine) FetchURL(ctx context.Context, rawURL string, optFns ...func(p *FetchParams)) (*http.Response, error) {
	params := FetchParams{URL: rawURL}
	for _, fn := range optFns {
		fn(&params)
	}
	params.Request = nil
	return e.Fetch(ctx, params)
}

// Fetch runs one fetch attempt through the extension lifecycle.
//
// Errors are one of:
//   - a *core.TaggedError with core.CodeInvalidRequest when no request
//     could be built,
//   - a *core.TaggedError with core.CodePluginErrorRequestWillFetch when a
//     requestWillFetch hook failed,
//   - the error of a fetchDidFail hook, which supersedes the original,
//   - otherwise the transmission or fetchDidSucceed error, unwrapped.
func (e *Engine) Fetch(ctx context.Context, params FetchParams) (*http.Response, error) {
	req, err := normalize(ctx, params)
	if err != nil {
		return nil, err
	}

	exts := append(e.registry.Extensions(), params.Extensions...)
	fc := core.NewFetchContext(uuid.NewString(), req, params.Event, params.Options, exts, e.logger)

	if resp, ok, err := preload(ctx, params.Event); err != nil || ok {
		if err == nil {
			fc.LogDebug("Served preloaded response", "url", req.URL.String())
		}
		return resp, err
	}

	failureExtensions := extension.SelectImplementing(exts, core.HookFetchDidFail)

	var originalRequest *http.Request
	if len(failureExtensions) > 0 {
		if originalRequest, err = core.DuplicateRequest(req); err != nil {
			return nil, err
		}
	}

	current, err := e.runRequestWillFetch(ctx, fc, req)
	if err != nil {
		fc.LogWarn("Pre-flight chain failed", "url", req.URL.String(), "error", err)
		return nil, err
	}

	filteredRequest, err := core.DuplicateRequest(current)
	if err != nil {
		return nil, err
	}

	resp, err := e.transmit(ctx, fc, params, current)
	if err == nil {
		resp, err = e.runFetchDidSucceed(ctx, fc, filteredRequest, resp)
	}

	if err != nil {
		if hookErr := e.runFetchDidFail(ctx, fc, failureExtensions, err, originalRequest, filteredRequest); hookErr != nil {
			e.logFetch(fc, filteredRequest, nil, hookErr)
			return nil, hookErr
		}
		e.logFetch(fc, filteredRequest, nil, err)
		return nil, err
	}

	e.logFetch(fc, filteredRequest, resp, nil)
	return resp, nil
}

func normalize(ctx context.Context, params FetchParams) (*http.Request, error) {
	if params.Request != nil {
		return params.Request, nil
	}

	req, err := core.NewRequest(ctx, params.URL)
	if err != nil {
		return nil, core.NewTaggedError(core.CodeInvalidRequest, core.Details{
			"url":                  params.URL,
			core.DetailThrownError: err,
		})
	}
	return req, nil
}

// preload reports ok when a non-nil preloaded response is available.
func preload(ctx context.Context, event core.Event) (*http.Response, bool, error) {
	p, isPreloader := event.(core.Preloader)
	if !isPreloader || !p.HasPreload() {
		return nil, false, nil
	}

	resp, err := p.PreloadResponse(ctx)
	if err != nil {
		return nil, false, err
	}
	return resp, resp != nil, nil
}

func (e *Engine) runRequestWillFetch(ctx context.Context, fc *core.FetchContext, req *http.Request) (*http.Request, error) {
	current := req

	for _, ext := range extension.SelectImplementing(fc.Extensions, core.HookRequestWillFetch) {
		dup, err := core.DuplicateRequest(current)
		if err != nil {
			return nil, pluginError(err)
		}

		start := time.Now()
		next, err := ext.(core.RequestWillFetcher).RequestWillFetch(ctx, core.RequestWillFetchParams{
			Request: dup,
			Event:   fc.Event,
		})
		e.logHook(fc, ext, core.HookRequestWillFetch, start, err)

		if err != nil {
			return nil, pluginError(err)
		}
		if next != nil {
			current = next
		}
	}

	return current, nil
}

func pluginError(err error) error {
	return core.NewTaggedError(core.CodePluginErrorRequestWillFetch, core.Details{
		core.DetailThrownError: err,
	})
}

func (e *Engine) transmit(ctx context.Context, fc *core.FetchContext, params FetchParams, req *http.Request) (*http.Response, error) {
	tr := e.transmitter
	if params.Transmitter != nil {
		tr = params.Transmitter
	}

	opts := fc.Options
	if core.IsNavigation(req) {
		opts = nil
	}

	resp, err := tr.Transmit(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, core.ErrNilResponse
	}
	return resp, nil
}

func (e *Engine) runFetchDidSucceed(ctx context.Context, fc *core.FetchContext, filtered *http.Request, resp *http.Response) (*http.Response, error) {
	for _, ext := range extension.SelectImplementing(fc.Extensions, core.HookFetchDidSucceed) {
		sent, err := core.DuplicateRequest(filtered)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		next, err := ext.(core.FetchDidSucceeder).FetchDidSucceed(ctx, core.FetchDidSucceedParams{
			Event:    fc.Event,
			Request:  sent,
			Response: resp,
		})
		e.logHook(fc, ext, core.HookFetchDidSucceed, start, err)

		if err != nil {
			return nil, err
		}
		if next != nil {
			resp = next
		}
	}

	return resp, nil
}

// runFetchDidFail runs the failure chain. The first hook error stops the
// chain and is returned.
func (e *Engine) runFetchDidFail(
	ctx context.Context,
	fc *core.FetchContext,
	exts []core.Extension,
	cause error,
	original, filtered *http.Request,
) error {
	for _, ext := range exts {
		origDup, err := core.DuplicateRequest(original)
		if err != nil {
			return err
		}
		sentDup, err := core.DuplicateRequest(filtered)
		if err != nil {
			return err
		}

		start := time.Now()
		err = ext.(core.FetchDidFailer).FetchDidFail(ctx, core.FetchDidFailParams{
			Error:           cause,
			Event:           fc.Event,
			OriginalRequest: origDup,
			Request:         sentDup,
		})
		e.logHook(fc, ext, core.HookFetchDidFail, start, err)

		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) logHook(fc *core.FetchContext, ext core.Extension, hook core.Hook, start time.Time, err error) {
	if !e.config.LogHooks {
		return
	}
	dur := time.Since(start)
	if fl, ok := e.logger.(*logging.FetchLogger); ok {
		fl.WithFetch(fc.ID).LogHook(ext.Name(), string(hook), dur, err)
		return
	}
	args := []any{"extension", ext.Name(), "hook", string(hook), "duration", dur}
	if err != nil {
		fc.LogWarn("Hook failed", append(args, "error", err)...)
		return
	}
	fc.LogDebug("Hook completed", args...)
}

func (e *Engine) logFetch(fc *core.FetchContext, req *http.Request, resp *http.Response, err error) {
	if !e.config.LogFetches {
		return
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if fl, ok := e.logger.(*logging.FetchLogger); ok {
		fl.WithFetch(fc.ID).LogFetch(req.Method, req.URL.String(), status, fc.Elapsed(), err)
		return
	}
	args := []any{"method", req.Method, "url", req.URL.String(), "duration", fc.Elapsed()}
	if err != nil {
		fc.LogWarn("Fetch failed", append(args, "error", err)...)
		return
	}
	fc.LogInfo("Fetch completed", append(args, "status", status)...)
}
