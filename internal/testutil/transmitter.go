package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/hupe1980/fetchmesh/core"
)

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

// TextResponse returns a response with the given status and string body.
func TextResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        http.Header{"Content-Type": []string{"text/plain"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
}

// ReadBody reads and closes a request or response body. Nil bodies read as "".
func ReadBody(rc io.ReadCloser) string {
	if rc == nil {
		return ""
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Call captures one transmission.
type Call struct {
	Request *http.Request
	Body    string
	Options *core.FetchOptions
}

// RecordingTransmitter records every transmission and answers with Respond,
// or a 200 "ok" response when Respond is nil. It is safe for concurrent use.
type RecordingTransmitter struct {
	Respond func(req *http.Request) (*http.Response, error)

	mu    sync.Mutex
	calls []Call
}

var _ core.Transmitter = (*RecordingTransmitter)(nil)

// Transmit implements core.Transmitter. The request body is consumed.
func (t *RecordingTransmitter) Transmit(_ context.Context, req *http.Request, opts *core.FetchOptions) (*http.Response, error) {
	body := ReadBody(req.Body)
	req.Body = io.NopCloser(strings.NewReader(body))

	t.mu.Lock()
	t.calls = append(t.calls, Call{Request: req, Body: body, Options: opts})
	t.mu.Unlock()

	if t.Respond != nil {
		return t.Respond(req)
	}
	return TextResponse(http.StatusOK, "ok"), nil
}

// Calls returns a copy of the recorded calls.
func (t *RecordingTransmitter) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Count returns the number of recorded calls.
func (t *RecordingTransmitter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
