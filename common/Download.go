package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/sony/gobreaker"
)

// Fetcher downloads a URL to a file and returns the number of bytes written.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dest string) (int64, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTPFetcher downloads over HTTP(S). With Retries == 0 every download is a
// single blocking attempt. Retries use exponential backoff; a per-host
// circuit breaker stops retrying a host that keeps failing.
type HTTPFetcher struct {
	Client  *http.Client
	Retries int
	Logger  *log.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewHTTPFetcher(timeout time.Duration, retries int, logger *log.Logger) *HTTPFetcher {
	if logger == nil {
		logger = DiscardLogger()
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		Retries:  retries,
		Logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// NewCircuitBreaker returns a breaker that trips after 3 consecutive
// failures and half-opens again after 30 seconds.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

func (f *HTTPFetcher) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.breakers == nil {
		f.breakers = make(map[string]*gobreaker.CircuitBreaker)
	}
	cb, ok := f.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(host)
		f.breakers[host] = cb
	}
	return cb
}

// Fetch downloads rawURL into dest. The body is streamed into dest+".part"
// and renamed on success, so dest never holds a truncated download.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, dest string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	cb := f.breaker(u.Host)

	var written int64
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			f.Logger.Warn("Retrying download", "url", rawURL, "attempt", attempt)
		}

		_, err := cb.Execute(func() (interface{}, error) {
			n, err := f.fetchOnce(ctx, rawURL, dest)
			written = n
			return nil, err
		})
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(err)
		case errors.As(err, &statusErr) && statusErr.StatusCode < 500:
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		}
		return err
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if f.Retries > 0 {
		policy = backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.Retries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return 0, err
	}

	f.Logger.Info("Downloaded", "url", rawURL, "size", humanize.Bytes(uint64(written)))
	return written, nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return 0, &StatusError{URL: rawURL, StatusCode: response.StatusCode}
	}

	partial := dest + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(file, response.Body)
	if err != nil {
		file.Close()
		os.Remove(partial)
		return n, err
	}
	if err := file.Close(); err != nil {
		os.Remove(partial)
		return n, err
	}

	if err := RemoveIfExists(dest); err != nil {
		os.Remove(partial)
		return n, err
	}
	return n, os.Rename(partial, dest)
}
