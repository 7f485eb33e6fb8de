// Package fetch retrieves asset files as raw bytes from HTTP(S) servers, the
// local filesystem or S3-compatible object stores.
//
// Every failure is reported as a *NetworkError carrying the URL and, where the
// transport exposes one, the status code. Fetchers never retry.
package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves a named resource. Headers are forwarded verbatim where
// the transport supports them.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string, headers map[string]string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f(ctx, url, headers)
}

// NetworkError reports a failed fetch. StatusCode is zero when the request
// never produced a response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFound reports whether the resource was missing.
func (e *NetworkError) NotFound() bool { return e.StatusCode == http.StatusNotFound }
