package core

import (
	"context"
	"net/http"
	"sync"
)

// Event is the occurrence that triggered a fetch, for example an inbound
// request being served by a proxy. Extensions receive it unchanged.
type Event interface {
	EventType() string
}

// Preloader is implemented by navigation-preload-capable events. When
// HasPreload reports true the engine awaits PreloadResponse once; a non-nil
// response short-circuits the whole pipeline.
type Preloader interface {
	HasPreload() bool
	PreloadResponse(ctx context.Context) (*http.Response, error)
}

// Preload is a single-assignment future for a preloaded response. The first
// call to Resolve or Reject wins; later calls are ignored.
type Preload struct {
	once sync.Once
	done chan struct{}
	resp *http.Response
	err  error
}

// NewPreload creates an unsettled preload.
func NewPreload() *Preload {
	return &Preload{done: make(chan struct{})}
}

// ResolvedPreload returns a preload already settled with resp. A nil resp
// represents an empty preload.
func ResolvedPreload(resp *http.Response) *Preload {
	p := NewPreload()
	p.Resolve(resp)
	return p
}

// Resolve settles the preload with resp (nil means empty).
func (p *Preload) Resolve(resp *http.Response) { p.settle(resp, nil) }

// Reject settles the preload with err.
func (p *Preload) Reject(err error) { p.settle(nil, err) }

func (p *Preload) settle(resp *http.Response, err error) {
	p.once.Do(func() {
		p.resp, p.err = resp, err
		close(p.done)
	})
}

// Wait blocks until the preload settles or ctx is done.
func (p *Preload) Wait(ctx context.Context) (*http.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchEvent is the stock Event: an inbound request plus an optional
// navigation preload.
type FetchEvent struct {
	// Request is the inbound request that caused the fetch. May be nil.
	Request *http.Request
	// ClientID identifies the requesting client (request id, session, ...).
	ClientID string
	// Preload, when set, advertises a preloaded response.
	Preload *Preload
}

var (
	_ Event     = (*FetchEvent)(nil)
	_ Preloader = (*FetchEvent)(nil)
)

// EventType implements Event.
func (e *FetchEvent) EventType() string { return "fetch" }

// HasPreload implements Preloader.
func (e *FetchEvent) HasPreload() bool { return e != nil && e.Preload != nil }

// PreloadResponse implements Preloader.
func (e *FetchEvent) PreloadResponse(ctx context.Context) (*http.Response, error) {
	if !e.HasPreload() {
		return nil, nil
	}
	return e.Preload.Wait(ctx)
}
