// HTTP fetching with retry and exponential backoff. The body is buffered in
// full (zip payloads need random access) and capped so a misconfigured URL
// cannot exhaust memory.

package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tabsynth/internal/config"
)

// maxFetchBytes caps a fetched body at 1 GiB.
const maxFetchBytes = int64(1) << 30

// fetchConfig configures the fetcher. Zero values get defaults:
// timeout 30s, maxRetries 3, initialBackoff 200ms, maxBackoff 5s.
type fetchConfig struct {
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// fetchTimeout reads an optional "timeout" duration string from source
// options ("45s", "2m"); unparseable or absent values mean the default.
func fetchTimeout(o config.Options) time.Duration {
	d, err := time.ParseDuration(o.String("timeout", ""))
	if err != nil {
		return 0
	}
	return d
}

// fetcher wraps an http.Client with retry and backoff behavior.
type fetcher struct {
	client         *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func newFetcher(cfg fetchConfig) *fetcher {
	if cfg.timeout <= 0 {
		cfg.timeout = 30 * time.Second
	}
	if cfg.maxRetries <= 0 {
		cfg.maxRetries = 3
	}
	if cfg.initialBackoff <= 0 {
		cfg.initialBackoff = 200 * time.Millisecond
	}
	if cfg.maxBackoff <= 0 {
		cfg.maxBackoff = 5 * time.Second
	}
	return &fetcher{
		client:         &http.Client{Timeout: cfg.timeout},
		maxRetries:     cfg.maxRetries,
		initialBackoff: cfg.initialBackoff,
		maxBackoff:     cfg.maxBackoff,
	}
}

// get fetches url with bounded retries. Transport errors, 5xx, and 429 are
// retried with exponential backoff; any other non-2xx status is final.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("ingest: url must not be empty")
	}

	attempts := f.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		// Respect context cancellation before each attempt.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("ingest: build request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			// Network or transport-level error. Treat as retryable.
			lastErr = err
		} else {
			body, status, rerr := drainResponse(resp)
			switch {
			case rerr != nil:
				lastErr = rerr
			case status >= 200 && status < 300:
				return body, nil
			case isRetryableStatus(status):
				lastErr = fmt.Errorf("ingest: retryable status %d from GET %s", status, url)
			default:
				return nil, fmt.Errorf("ingest: unexpected status %d from GET %s", status, url)
			}
		}

		if attempt+1 >= attempts {
			return nil, lastErr
		}

		if err := sleepWithContext(ctx, backoffDuration(f.initialBackoff, attempt, f.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// drainResponse reads up to the size cap and closes the body.
func drainResponse(resp *http.Response) ([]byte, int, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("ingest: read body: %w", err)
	}
	if int64(len(body)) > maxFetchBytes {
		return nil, resp.StatusCode, fmt.Errorf("ingest: response body exceeds %d bytes", maxFetchBytes)
	}
	return body, resp.StatusCode, nil
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry. This is intentionally conservative: 5xx and 429 are treated as
// transient; everything else is considered final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}

// sleepWithContext waits for d but aborts early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
