// Package fetchmesh provides a high-level façade over the fetch engine, the
// default net/http transmitter, the built-in extensions and the failure
// journal. Most applications interact with this package by:
//  1. Creating a FetchMesh via New() or NewFromConfig()
//  2. Registering extensions (Use)
//  3. Fetching (Get, Fetch) or handing Client() to code that expects an
//     *http.Client
//
// The façade delegates orchestration to engine.Engine while keeping setup
// concise.
package fetchmesh

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"github.com/hupe1980/fetchmesh/config"
	"github.com/hupe1980/fetchmesh/core"
	"github.com/hupe1980/fetchmesh/engine"
	"github.com/hupe1980/fetchmesh/extensions/headers"
	"github.com/hupe1980/fetchmesh/extensions/logger"
	"github.com/hupe1980/fetchmesh/extensions/metrics"
	"github.com/hupe1980/fetchmesh/extensions/tracing"
	"github.com/hupe1980/fetchmesh/journal"
	"github.com/hupe1980/fetchmesh/logging"
	"github.com/hupe1980/fetchmesh/proxy"
	"github.com/hupe1980/fetchmesh/transport"
)

// Options configures the FetchMesh instance.
type Options struct {
	// EngineConfig controls fetch and hook logging.
	EngineConfig engine.Config

	// Transmitter defaults to transport.New().
	Transmitter core.Transmitter

	// FetchOptions are used by Get and Client when a call supplies none.
	FetchOptions *core.FetchOptions

	// Extensions are registered in order, after the journal.
	Extensions []core.Extension

	// Tracing runs after every other extension, including those added with
	// Use or passed per call, so its span covers the complete chain. Nil
	// disables tracing.
	Tracing *tracing.Extension

	// Journal records failed fetches. Nil disables the journal.
	Journal journal.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// FetchMesh is the high-level façade aggregating the engine and its
// collaborators.
type FetchMesh struct {
	opts   Options
	engine *engine.Engine
	// trailing extensions are appended to every fetch.
	trailing []core.Extension
}

// New creates a new FetchMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *FetchMesh {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var exts []core.Extension
	if opts.Journal != nil {
		exts = append(exts, journal.NewExtension(opts.Journal))
	}
	exts = append(exts, opts.Extensions...)

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Transmitter = opts.Transmitter
		o.Logger = opts.Logger
		o.Extensions = exts
	})

	fm := &FetchMesh{opts: opts, engine: e}
	if opts.Tracing != nil {
		fm.trailing = append(fm.trailing, opts.Tracing)
	}
	return fm
}

// NewFromConfig builds a FetchMesh from configuration: logger backend,
// transmitter settings, default headers and the enabled built-in extensions.
// optFns run last and may override anything derived from cfg.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*FetchMesh, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := NewLogger(cfg.Log, os.Stderr)

	base, err := transport.ParseBaseURL(cfg.Transport.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetchmesh: %w", err)
	}
	tr := transport.New(func(o *transport.Options) {
		o.BaseURL = base
		o.UserAgent = cfg.Transport.UserAgent
	})

	var exts []core.Extension
	if len(cfg.Headers) > 0 {
		exts = append(exts, headers.New(cfg.Headers))
	}
	var tracer *tracing.Extension
	if cfg.Extensions.TracingEnabled() {
		tracer = tracing.New()
	}
	if cfg.Extensions.MetricsEnabled() {
		exts = append(exts, metrics.New())
	}
	if cfg.Extensions.LoggingEnabled() {
		exts = append(exts, logger.New(log))
	}

	var store journal.Store
	if cfg.Extensions.JournalEnabled() {
		store = journal.NewInMemoryStore(cfg.Extensions.JournalMaxEntries)
	}

	fm := New(func(o *Options) {
		o.EngineConfig = engine.Config{LogFetches: true, LogHooks: cfg.Log.Hooks}
		o.Transmitter = tr
		o.FetchOptions = &core.FetchOptions{
			Redirect: core.RedirectMode(strings.ToLower(cfg.Transport.Redirect)),
			Timeout:  time.Duration(cfg.Transport.TimeoutSecs) * time.Second,
		}
		o.Extensions = exts
		o.Tracing = tracer
		o.Journal = store
		o.Logger = log

		for _, fn := range optFns {
			fn(o)
		}
	})

	return fm, nil
}

// NewLogger builds a logger for the configured backend writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) logging.Logger {
	level := logging.ParseLevel(cfg.Level)

	switch cfg.Backend {
	case config.BackendZerolog:
		zl := zerolog.New(w).With().Timestamp().Logger().Level(logging.ZerologLevel(level))
		if cfg.Format == "text" {
			zl = zl.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
		}
		return logging.NewZerologAdapter(zl)
	case config.BackendLogrus:
		lr := logrus.New()
		lr.SetOutput(w)
		lr.SetLevel(logging.LogrusLevel(level))
		if cfg.Format == "json" {
			lr.SetFormatter(&logrus.JSONFormatter{})
		}
		return logging.NewLogrusAdapter(lr)
	default:
		return logging.NewLogger(&logging.LoggerConfig{
			Level:  level,
			Format: cfg.Format,
			Output: w,
		})
	}
}

// Use registers extensions. Registration order is dispatch order; the
// tracing extension still runs after them.
func (m *FetchMesh) Use(exts ...core.Extension) { m.engine.Register(exts...) }

// Fetch runs one fetch through the engine.
func (m *FetchMesh) Fetch(ctx context.Context, params engine.FetchParams) (*http.Response, error) {
	if params.Options == nil {
		params.Options = m.opts.FetchOptions
	}
	if len(m.trailing) > 0 {
		params.Extensions = append(slices.Clone(params.Extensions), m.trailing...)
	}
	return m.engine.Fetch(ctx, params)
}

// Get fetches rawURL with a GET request.
func (m *FetchMesh) Get(ctx context.Context, rawURL string, optFns ...func(p *engine.FetchParams)) (*http.Response, error) {
	params := engine.FetchParams{URL: rawURL}
	for _, fn := range optFns {
		fn(&params)
	}
	params.Request = nil
	return m.Fetch(ctx, params)
}

// Client returns an *http.Client whose requests go through the engine.
func (m *FetchMesh) Client() *http.Client {
	return &http.Client{Transport: &engine.Transport{
		Engine:     m.engine,
		Options:    m.opts.FetchOptions,
		Extensions: m.trailing,
	}}
}

// Handler returns a reverse proxy forwarding to upstream through the engine.
func (m *FetchMesh) Handler(upstream string, optFns ...func(o *proxy.Options)) (http.Handler, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("fetchmesh: upstream: %w", err)
	}
	fetchOpts, trailing := m.opts.FetchOptions, m.trailing
	return proxy.New(m.engine, u, append([]func(o *proxy.Options){func(o *proxy.Options) {
		o.FetchOptions = fetchOpts
		o.Extensions = trailing
	}}, optFns...)...)
}

// Engine exposes the underlying engine.
func (m *FetchMesh) Engine() *engine.Engine { return m.engine }

// Journal returns the failure journal, or nil when disabled.
func (m *FetchMesh) Journal() journal.Store { return m.opts.Journal }

// Logger returns the configured logger.
func (m *FetchMesh) Logger() logging.Logger { return m.engine.Logger() }
