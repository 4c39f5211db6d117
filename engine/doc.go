// Package engine implements the fetch orchestrator of fetchmesh.
//
// An Engine owns a host Transmitter, a logger and an ordered extension
// registry. Each call to Fetch runs one attempt through a fixed lifecycle:
//
//  1. Preload short-circuit. When the triggering event advertises a preloaded
//     response and it resolves to a non-nil value, that response is returned
//     and nothing else runs.
//  2. The fetchDidFail extensions are selected up front. Only when there are
//     any is a pristine copy of the request kept for them.
//  3. Every requestWillFetch extension runs in registration order on its own
//     duplicate of the current request and may replace it. A hook error
//     aborts the fetch with a *core.TaggedError coded
//     core.CodePluginErrorRequestWillFetch.
//  4. The current request is transmitted exactly once. Navigation requests
//     are sent without FetchOptions.
//  5. On success every fetchDidSucceed extension runs in order and may
//     replace the response.
//  6. On a transmission or fetchDidSucceed error every fetchDidFail
//     extension runs in order, then the error is returned unchanged.
//
// # Usage
//
//	e := engine.New(func(o *engine.Options) {
//	    o.Logger = logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	})
//	e.Register(headers.New(map[string]string{"X-Client": "fetchmesh"}))
//
//	resp, err := e.FetchURL(ctx, "https://example.com/")
//
// # Concurrency
//
// Fetch is safe for concurrent use. The registry is snapshotted when a fetch
// starts; registrations made while it runs take effect for later fetches.
// Extensions are shared between concurrent fetches and must be safe for
// concurrent use. The engine adds no timeouts of its own: ctx is handed to
// every hook and to the transmitter as is.
package engine
