package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/fetchmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Seen-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("X-Seen-Token", r.Header.Get("X-Token"))
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/echo", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestTransmit_AbsoluteURL(t *testing.T) {
	srv := newServer(t)
	tr := New(func(o *Options) { o.UserAgent = "fetchmesh-test" })

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/echo", strings.NewReader("payload"))
	require.NoError(t, err)

	resp, err := tr.Transmit(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fetchmesh-test", resp.Header.Get("X-Seen-Agent"))
	assert.Equal(t, "payload", readAll(t, resp))
}

func TestTransmit_RelativeURL(t *testing.T) {
	srv := newServer(t)
	base, err := ParseBaseURL(srv.URL)
	require.NoError(t, err)
	tr := New(func(o *Options) { o.BaseURL = base })

	req, err := core.NewRequest(context.Background(), "/echo")
	require.NoError(t, err)

	resp, err := tr.Transmit(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = readAll(t, resp)
}

func TestTransmit_RelativeURLWithoutBase(t *testing.T) {
	req, err := core.NewRequest(context.Background(), "/echo")
	require.NoError(t, err)

	_, err = New().Transmit(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrRelativeURL)
}

func TestTransmit_OptionsHeader(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/echo", nil)
	require.NoError(t, err)

	resp, err := New().Transmit(context.Background(), req, &core.FetchOptions{
		Header: http.Header{"X-Token": []string{"secret"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", resp.Header.Get("X-Seen-Token"))
	assert.Empty(t, req.Header.Get("X-Token"), "caller request must not be modified")
	_ = readAll(t, resp)
}

func TestTransmit_RedirectModes(t *testing.T) {
	srv := newServer(t)

	newReq := func() *http.Request {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/redirect", nil)
		require.NoError(t, err)
		return req
	}

	resp, err := New().Transmit(context.Background(), newReq(), &core.FetchOptions{Redirect: core.RedirectFollow})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = readAll(t, resp)

	resp, err = New().Transmit(context.Background(), newReq(), &core.FetchOptions{Redirect: core.RedirectManual})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	_ = readAll(t, resp)

	_, err = New().Transmit(context.Background(), newReq(), &core.FetchOptions{Redirect: core.RedirectError})
	assert.ErrorIs(t, err, ErrRedirect)
}

func TestTransmit_Timeout(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/slow", nil)
	require.NoError(t, err)

	_, err = New().Transmit(context.Background(), req, &core.FetchOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTransmit_NilRequest(t *testing.T) {
	_, err := New().Transmit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, core.ErrNilRequest)
}

func TestParseBaseURL(t *testing.T) {
	u, err := ParseBaseURL("https://example.com/api")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api/", u.String())

	u, err = ParseBaseURL("  ")
	assert.NoError(t, err)
	assert.Nil(t, u)

	_, err = ParseBaseURL("ftp://example.com")
	assert.Error(t, err)
}
