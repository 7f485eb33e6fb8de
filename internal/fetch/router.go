package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Router dispatches on URL scheme: http/https, s3, and file:// or bare paths.
// A nil backend for a scheme fails the fetch with a 501.
type Router struct {
	HTTP Fetcher
	File Fetcher
	S3   Fetcher
}

// Fetch forwards to the backend for url's scheme.
func (r *Router) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var backend Fetcher
	scheme := Scheme(url)
	switch scheme {
	case "http", "https":
		backend = r.HTTP
	case "s3":
		backend = r.S3
	case "file", "":
		backend = r.File
	default:
		return nil, &NetworkError{URL: url, StatusCode: http.StatusBadRequest, Err: fmt.Errorf("unsupported scheme %q", scheme)}
	}
	if backend == nil {
		return nil, &NetworkError{URL: url, StatusCode: http.StatusNotImplemented, Err: fmt.Errorf("no fetcher configured for scheme %q", scheme)}
	}
	return backend.Fetch(ctx, url, headers)
}

// Scheme returns the lower-cased URL scheme, or "" for a bare path.
func Scheme(url string) string {
	i := strings.Index(url, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(url[:i])
}
