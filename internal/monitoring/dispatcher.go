package monitoring

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
)

// signatureHeader carries the HMAC-SHA256 signature over the JSON payload,
// keyed by the subscription's generated secret. This is a deliberate upgrade
// over webhooks.rs's compute_signature, which concatenates secret+payload
// under a bare SHA-256 rather than computing a true HMAC; §4.7 calls for
// "signed with an HMAC-SHA256 header", so the port corrects the original's
// construction instead of reproducing its weakness.
const signatureHeader = "X-Aegistry-Signature"

// Dispatcher is the background loop scanning for pending notifications and
// delivering them over HTTP. Grounded on webhooks.rs's deliver_webhook plus
// the retry/circuit-breaker shape internal/adapters.Fetcher already
// establishes for outbound HTTP in this repo.
type Dispatcher struct {
	store  NotificationStore
	client *http.Client
	cfg    config.MonitoringConfig
	dedupe dedupeStore

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]

	stopChan chan struct{}
	wakeChan chan struct{}
	wg       sync.WaitGroup
}

// Waker lets a result producer (Rescreen, or an NATS-backed cross-process
// gateway — see nats_waker.go) nudge the Dispatcher into running a dispatch
// pass immediately instead of waiting out the rest of the current
// DispatchInterval tick. Wake is non-blocking: a Dispatcher already about to
// wake up drops a redundant nudge rather than stalling the caller.
type Waker interface {
	Wake()
}

// NotificationStore is the subset of *Store the Dispatcher depends on, kept
// as an interface so dispatcher tests run against an in-memory fake instead
// of a live DuckDB file.
type NotificationStore interface {
	GetPendingNotifications(ctx context.Context) ([]pendingNotification, error)
	MarkNotified(ctx context.Context, resultID int64) error
}

// dedupeStore is the subset of a *badger.DB this package depends on, kept as
// an interface so dispatcher tests run without a real on-disk KV store.
// Implementations must be safe to call Seen/MarkSeen from one goroutine at a
// time (the Dispatcher never calls them concurrently).
type dedupeStore interface {
	// Seen reports whether resultID was already marked delivered, surviving
	// a crash between "HTTP 2xx received" and "notified flag committed" —
	// the dedupe key is written before MarkNotified's DB write, so a crash
	// in between replays as "already seen, skip re-delivery" rather than a
	// duplicate callback.
	Seen(resultID int64) (bool, error)
	MarkSeen(resultID int64) error
}

// NewDispatcher builds a Dispatcher. dedupe may be a noopDedupe (tests, or a
// deployment that accepts at-least-once duplicates without a persistent KV).
func NewDispatcher(store NotificationStore, cfg config.MonitoringConfig, dedupe dedupeStore) *Dispatcher {
	if dedupe == nil {
		dedupe = noopDedupe{}
	}
	return &Dispatcher{
		store:    store,
		client:   &http.Client{Timeout: cfg.CallbackTimeout},
		cfg:      cfg,
		dedupe:   dedupe,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
		stopChan: make(chan struct{}),
		wakeChan: make(chan struct{}, 1),
	}
}

// Wake implements Waker: it schedules an immediate dispatch pass. Safe to
// call from any goroutine, including before Start.
func (d *Dispatcher) Wake() {
	select {
	case d.wakeChan <- struct{}{}:
	default:
	}
}

// Start begins the dispatch loop: wake on cfg.DispatchInterval, scan for
// pending notifications, deliver each.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.stopChan = make(chan struct{})
	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to finish.
func (d *Dispatcher) Stop() error {
	close(d.stopChan)
	d.wg.Wait()
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case <-ticker.C:
			if err := d.dispatchPending(ctx); err != nil {
				logging.Error().Err(err).Msg("callback dispatch pass failed")
			}
		case <-d.wakeChan:
			if err := d.dispatchPending(ctx); err != nil {
				logging.Error().Err(err).Msg("callback dispatch pass failed")
			}
		}
	}
}

// dispatchPending delivers every pending notification, logging and
// continuing past a single destination's failure so one dead endpoint
// doesn't starve the rest of the queue.
func (d *Dispatcher) dispatchPending(ctx context.Context) error {
	pending, err := d.store.GetPendingNotifications(ctx)
	if err != nil {
		return fmt.Errorf("list pending notifications: %w", err)
	}

	for _, p := range pending {
		if err := d.deliverOne(ctx, p); err != nil {
			logging.Warn().Err(err).Str("tenant", p.Subject.TenantID).
				Str("reference_id", p.Subject.ReferenceID).Msg("callback delivery failed")
		}
	}
	return nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, p pendingNotification) error {
	seen, err := d.dedupe.Seen(p.Result.ID)
	if err != nil {
		return fmt.Errorf("check dedupe: %w", err)
	}
	if seen {
		// A prior run delivered this successfully but crashed before
		// MarkNotified committed; skip re-delivery and settle the flag.
		return d.store.MarkNotified(ctx, p.Result.ID)
	}

	payload := callbackPayload{
		ReferenceID: p.Subject.ReferenceID,
		HasChanges:  p.Result.HasChanges,
		ScreenedAt:  p.Result.ScreenedAt,
		Hits:        p.Result.HitsJSON,
	}
	body, err := payload.marshal()
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	signature := sign(p.Subject.Secret, body)

	breaker, err := d.breakerFor(p.Subject.CallbackURL)
	if err != nil {
		return fmt.Errorf("resolve circuit breaker: %w", err)
	}

	if err := d.sendWithRetry(ctx, breaker, p.Subject.CallbackURL, body, signature); err != nil {
		return err
	}

	if err := d.dedupe.MarkSeen(p.Result.ID); err != nil {
		logging.Warn().Err(err).Int64("result_id", p.Result.ID).Msg("failed to persist dedupe key after successful delivery")
	}
	return d.store.MarkNotified(ctx, p.Result.ID)
}

// sendWithRetry delivers body up to cfg.CallbackMaxAttempts times with
// exponential backoff (2^i seconds per §4.7), each attempt wrapped in the
// destination's circuit breaker.
func (d *Dispatcher) sendWithRetry(ctx context.Context, breaker *gobreaker.CircuitBreaker[struct{}], callbackURL string, body, signature []byte) error {
	attempts := d.cfg.CallbackMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		_, err := breaker.Execute(func() (struct{}, error) {
			return struct{}{}, d.post(ctx, callbackURL, body, signature)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < attempts-1 {
			delay := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("callback delivery to %s: exceeded %d attempts: %w", callbackURL, attempts, lastErr)
}

func (d *Dispatcher) post(ctx context.Context, callbackURL string, body, signature []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, hex.EncodeToString(signature))

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback %s returned HTTP %d", callbackURL, resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) breakerFor(callbackURL string) (*gobreaker.CircuitBreaker[struct{}], error) {
	host, err := hostOf(callbackURL)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.breakers[host]; ok {
		return b, nil
	}

	b := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures == counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("callback_host", name).Str("from", stateName(from)).Str("to", stateName(to)).
				Msg("callback destination circuit breaker state transition")
		},
	})
	d.breakers[host] = b
	return b, nil
}

// stateName renders a gobreaker.State for logging; gobreaker.State has no
// Stringer method of its own (same gap internal/adapters.Fetcher works
// around with breakerStateName).
func stateName(s gobreaker.State) string {
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

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse callback URL: %w", err)
	}
	return u.Host, nil
}

func sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// noopDedupe is the dedupeStore used when no durable dedupe KV is
// configured: every result is treated as unseen, accepting the at-least-once
// duplicate-on-crash window §4.7 already tells consumers to tolerate.
type noopDedupe struct{}

func (noopDedupe) Seen(int64) (bool, error) { return false, nil }
func (noopDedupe) MarkSeen(int64) error     { return nil }
