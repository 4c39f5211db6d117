package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNilRequest is returned when a request is required but nil was given.
	ErrNilRequest = errors.New("core: nil request")

	// ErrNilResponse is returned when a response is required but nil was given.
	ErrNilResponse = errors.New("core: nil response")
)

// NewRequest builds a GET request from a plain URL string. Relative URLs such
// as "/x" are accepted; resolving them is left to the transmitter.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("missing url")
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
}

// DuplicateRequest returns an independently readable copy of r.
//
// When r can replay its body through GetBody the copy gets a fresh reader and
// r is left untouched. Otherwise the body is read into memory once and both r
// and the copy are re-armed with their own readers over the same bytes (and a
// GetBody func, so later duplicates are cheap). The copy keeps r's context.
func DuplicateRequest(r *http.Request) (*http.Request, error) {
	if r == nil {
		return nil, ErrNilRequest
	}

	dup := r.Clone(r.Context())
	if r.Body == nil || r.Body == http.NoBody {
		return dup, nil
	}

	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, fmt.Errorf("duplicate request body: %w", err)
		}
		dup.Body = body
		return dup, nil
	}

	data, err := drain(r.Body)
	if err != nil {
		return nil, fmt.Errorf("duplicate request body: %w", err)
	}

	armRequest(r, data)
	armRequest(dup, data)

	return dup, nil
}

// DuplicateResponse returns an independently readable copy of r. The body is
// materialized in memory and both r and the copy receive their own readers.
// Header and Trailer maps are deep-copied; the originating Request pointer is
// shared.
func DuplicateResponse(r *http.Response) (*http.Response, error) {
	if r == nil {
		return nil, ErrNilResponse
	}

	dup := new(http.Response)
	*dup = *r
	dup.Header = r.Header.Clone()
	dup.Trailer = r.Trailer.Clone()

	if r.Body == nil || r.Body == http.NoBody {
		return dup, nil
	}

	data, err := drain(r.Body)
	if err != nil {
		return nil, fmt.Errorf("duplicate response body: %w", err)
	}

	armResponse(r, data)
	armResponse(dup, data)

	return dup, nil
}

func drain(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

func armRequest(r *http.Request, data []byte) {
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	r.ContentLength = int64(len(data))
}

func armResponse(r *http.Response, data []byte) {
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.ContentLength = int64(len(data))
}
