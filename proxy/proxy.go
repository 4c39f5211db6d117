// Package proxy serves a reverse proxy whose upstream traffic goes through a
// fetchmesh engine. Every inbound request becomes a core.FetchEvent, so
// extensions see the originating request and the client id.
package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/logging"
)

// HeaderError carries the TaggedError code of a failed fetch.
const HeaderError = "X-Fetchmesh-Error"

// Hop-by-hop headers are not forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Options configure the proxy handler.
type Options struct {
	// HealthPath answers 200 without touching the upstream. Empty disables it.
	HealthPath string
	// FetchOptions are handed to the transmitter for non-navigation requests.
	FetchOptions *core.FetchOptions
	// Extensions run after the engine's registered ones.
	Extensions []core.Extension
	// Middlewares run after the request id and recoverer middlewares.
	Middlewares []func(http.Handler) http.Handler
	// Logger defaults to the engine's logger.
	Logger logging.Logger
}

type handler struct {
	engine   *engine.Engine
	upstream *url.URL
	opts     Options
	logger   logging.Logger
}

// New returns an http.Handler forwarding every request to upstream through e.
func New(e *engine.Engine, upstream *url.URL, optFns ...func(o *Options)) (http.Handler, error) {
	if e == nil {
		return nil, errors.New("proxy: nil engine")
	}
	if upstream == nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, errors.New("proxy: upstream must be an absolute url")
	}

	opts := Options{HealthPath: "/healthz"}
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{engine: e, upstream: upstream, opts: opts, logger: opts.Logger}
	if h.logger == nil {
		h.logger = e.Logger()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if len(opts.Middlewares) > 0 {
		router.Use(opts.Middlewares...)
	}

	if opts.HealthPath != "" {
		router.Get(opts.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, "ok")
		})
	}
	router.HandleFunc("/*", h.serve)

	return router, nil
}

func (h *handler) serve(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	if reqID != "" {
		w.Header().Set(middleware.RequestIDHeader, reqID)
	}

	resp, err := h.engine.Fetch(r.Context(), engine.FetchParams{
		Request:    h.outbound(r),
		Event:      &core.FetchEvent{Request: r, ClientID: reqID},
		Options:    h.opts.FetchOptions,
		Extensions: h.opts.Extensions,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer resp.Body.Close()

	header := w.Header()
	for k, vs := range resp.Header {
		header[k] = append([]string(nil), vs...)
	}
	removeHopHeaders(header)

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("Copying upstream body failed", "request_id", reqID, "error", err)
	}
}

// outbound rewrites the inbound request to target the upstream.
func (h *handler) outbound(r *http.Request) *http.Request {
	out := r.Clone(r.Context())
	out.RequestURI = ""

	u := *h.upstream
	u.Path = joinPath(h.upstream.Path, r.URL.Path)
	u.RawPath = ""
	switch {
	case h.upstream.RawQuery == "":
		u.RawQuery = r.URL.RawQuery
	case r.URL.RawQuery != "":
		u.RawQuery = h.upstream.RawQuery + "&" + r.URL.RawQuery
	}
	out.URL = &u
	out.Host = h.upstream.Host

	removeHopHeaders(out.Header)
	out.Header.Set("X-Forwarded-Host", r.Host)
	if r.TLS != nil {
		out.Header.Set("X-Forwarded-Proto", "https")
	} else {
		out.Header.Set("X-Forwarded-Proto", "http")
	}

	return out
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway

	var te *core.TaggedError
	if errors.As(err, &te) {
		w.Header().Set(HeaderError, string(te.Code()))
		if te.Code() == core.CodeInvalidRequest {
			status = http.StatusBadRequest
		}
	}

	h.logger.Warn("Proxy fetch failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	http.Error(w, http.StatusText(status), status)
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func joinPath(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return strings.TrimSuffix(a, "/") + "/" + strings.TrimPrefix(b, "/")
}
