package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cursorworkshop/aegistry/internal/logging"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 aegistry-screening-ingest"

// Fetcher is the shared HTTP client every adapter wraps its source-specific
// fetch logic around: a gobreaker circuit breaker per destination host (same
// construction the teacher uses for its Tautulli client, adapted from
// interface{} results to []byte since every adapter only ever fetches raw
// bytes), a per-host token-bucket rate limiter, and 429 retry with
// exponential backoff honoring Retry-After, grounded on the teacher's
// PlexClient.doRequestWithRateLimit.
type Fetcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	name    string
}

// NewFetcher builds a Fetcher for one source. requestsPerSecond bounds how
// often this adapter hits its upstream host; burst allows short bursts
// (e.g. the EU adapter's RSS-then-XML two-step fetch).
func NewFetcher(name string, timeout time.Duration, requestsPerSecond float64, burst int) *Fetcher {
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures == counts.Requests
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			logging.Warn().Str("adapter", cbName).Str("from", breakerStateName(from)).Str("to", breakerStateName(to)).
				Msg("adapter circuit breaker state transition")
		},
	})

	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		name:    name,
	}
}

func breakerStateName(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Get fetches url with the shared client, applying the rate limiter, the
// circuit breaker, and 429 retry with exponential backoff (1s, 2s, 4s, 8s,
// 16s; max 5 retries after the first attempt), same budget as the teacher's
// Plex client.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter wait: %w", f.name, err)
	}

	return f.breaker.Execute(func() ([]byte, error) {
		return f.doWithRetry(ctx, url, headers)
	})
}

func (f *Fetcher) doWithRetry(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	const maxRetries = 5
	baseDelay := time.Second

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w", f.name, err)
		}
		req.Header.Set("User-Agent", userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: fetch %s: %w", f.name, url, err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("%s: %s returned HTTP %d", f.name, url, resp.StatusCode)
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("%s: read response body: %w", f.name, err)
			}
			return body, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("%s: rate limited by %s", f.name, url)
		if attempt == maxRetries {
			break
		}

		delay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if parsed, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = parsed
			}
		}
		logging.Warn().Str("adapter", f.name).Dur("delay", delay).Int("attempt", attempt+1).
			Msg("upstream rate limited (HTTP 429), retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%s: exceeded %d retries: %w", f.name, maxRetries, lastErr)
}
