package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/splat.report/internal/timeutil"
)

// Entry is one recorded fetch.
type Entry struct {
	URL        string
	Bytes      int
	Started    time.Time
	Duration   time.Duration
	StatusCode int // non-zero only for failed fetches that carried a status
	Err        error
}

// Recorder wraps a Fetcher and keeps an ordered log of every call.
type Recorder struct {
	Next Fetcher

	// Clock times each fetch.
	Clock timeutil.Clock

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder wraps next.
func NewRecorder(next Fetcher) *Recorder {
	return &Recorder{Next: next, Clock: timeutil.RealClock{}}
}

// Fetch forwards to Next and records the outcome.
func (r *Recorder) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	start := r.Clock.Now()
	data, err := r.Next.Fetch(ctx, url, headers)
	e := Entry{URL: url, Bytes: len(data), Started: start, Duration: r.Clock.Since(start), Err: err}
	var nerr *NetworkError
	if errors.As(err, &nerr) {
		e.StatusCode = nerr.StatusCode
	}

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return data, err
}

// Entries returns a copy of the log.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// TotalBytes sums the bytes of successful fetches.
func (r *Recorder) TotalBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		n += int64(e.Bytes)
	}
	return n
}
