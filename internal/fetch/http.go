package fetch

import (
	"context"
	"io"
	"net/http"

	"github.com/banshee-data/splat.report/internal/httputil"
	"github.com/banshee-data/splat.report/internal/version"
)

// HTTPFetcher fetches http and https URLs with a GET request.
type HTTPFetcher struct {
	Client httputil.HTTPClient
	// UserAgent is set unless the caller's headers already carry one.
	UserAgent string
}

// NewHTTPFetcher returns an HTTPFetcher over client, or over
// http.DefaultClient when client is nil.
func NewHTTPFetcher(client httputil.HTTPClient) *HTTPFetcher {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPFetcher{Client: client, UserAgent: version.UserAgent()}
}

// Fetch issues the GET and returns the full body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}
