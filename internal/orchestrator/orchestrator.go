// Package orchestrator implements the Ingest Orchestrator (C8): it drives
// every configured Source Adapter in turn, upserts what they yield into the
// Subject Store, stamps a dataset version per source, tombstones subjects a
// refresh no longer sees, and triggers the Monitoring Engine's re-screening
// pass once the store reflects the refresh in full.
//
// The lifecycle (Start/Stop, ticker-driven loop, mutex-guarded manual
// trigger) is grounded on the teacher's internal/sync.Manager: one
// goroutine per enabled concern, a stopChan plus WaitGroup for graceful
// shutdown, and a syncMu preventing overlapping refreshes.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/cursorworkshop/aegistry/internal/adapters"
	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/store"
)

// SubjectStore is the subset of *store.Store the Orchestrator depends on,
// kept as an interface so orchestrator tests don't need a live DuckDB file.
type SubjectStore interface {
	NextVersion(ctx context.Context, source string) (int64, error)
	Upsert(ctx context.Context, subjects []models.Subject, version int64) (inserted, updated int, err error)
	Tombstone(ctx context.Context, source string, version int64) (int64, error)
	RecordDatasetVersion(ctx context.Context, dv store.DatasetVersion) error
	LatestDigest(ctx context.Context, source string) (string, error)
}

// Rescreener is implemented by the Monitoring Engine. RunOnce calls it once
// per refresh cycle, after every adapter has been processed (failed ones
// included).
type Rescreener interface {
	RescreenAll(ctx context.Context) error
}

// Orchestrator drives one refresh cycle across every configured adapter.
type Orchestrator struct {
	store      SubjectStore
	adapterSet []adapters.Adapter
	rescreener Rescreener
	cfg        config.RefreshConfig

	mu       sync.RWMutex
	running  bool
	lastRun  time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup
	runMu    sync.Mutex // serializes RunOnce against the ticker loop
}

// New builds an Orchestrator over the given adapters. rescreener may be nil
// (re-screening is skipped, e.g. in tests exercising only the ingest path).
func New(subjectStore SubjectStore, adapterSet []adapters.Adapter, rescreener Rescreener, cfg config.RefreshConfig) *Orchestrator {
	return &Orchestrator{
		store:      subjectStore,
		adapterSet: adapterSet,
		rescreener: rescreener,
		cfg:        cfg,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the periodic refresh loop: one RunOnce on startup in the
// background so it never blocks server boot, then a ticker firing every
// cfg.Interval, same shape as the teacher's Manager.Start/syncLoop.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator is already running")
	}
	o.running = true
	o.stopChan = make(chan struct{})
	o.mu.Unlock()

	logging.Info().Dur("interval", o.cfg.Interval).Msg("starting ingest orchestrator")

	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		if err := o.RunOnce(ctx); err != nil {
			logging.Warn().Err(err).Msg("initial refresh failed (will retry on next tick)")
		}
	}()
	go o.refreshLoop(ctx)

	return nil
}

func (o *Orchestrator) refreshLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopChan:
			return
		case <-ticker.C:
			if err := o.RunOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("refresh failed")
			}
		}
	}
}

// Stop signals the refresh loop to exit and waits for it to finish.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator is not running")
	}
	o.running = false
	o.mu.Unlock()

	logging.Info().Msg("stopping ingest orchestrator")
	close(o.stopChan)
	o.wg.Wait()
	logging.Info().Msg("ingest orchestrator stopped")
	return nil
}

// LastRun returns the time the most recent refresh started.
func (o *Orchestrator) LastRun() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastRun
}

// RunOnce drives a full refresh cycle: every adapter runs in turn (sequential
// to bound outbound load, per the expansion's scheduling note — a future
// per-host worker pool is a local change to this loop, not a redesign), a
// source whose fetch or parse fails is logged and skipped rather than
// aborting the cycle, and the Monitoring Engine re-screens once every source
// has been processed.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	o.mu.Lock()
	o.lastRun = time.Now()
	o.mu.Unlock()

	var refreshErrs []error
	for _, a := range o.adapterSet {
		fetchCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
		err := o.refreshSource(fetchCtx, a)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Str("source", a.Name()).Msg("source refresh failed, continuing with remaining sources")
			refreshErrs = append(refreshErrs, err)
		}
	}

	if o.rescreener != nil {
		if err := o.rescreener.RescreenAll(ctx); err != nil {
			logging.Error().Err(err).Msg("post-refresh re-screening failed")
			refreshErrs = append(refreshErrs, err)
		}
	}

	if len(refreshErrs) == len(o.adapterSet) && len(o.adapterSet) > 0 {
		return fmt.Errorf("all %d sources failed to refresh", len(o.adapterSet))
	}
	return nil
}

// refreshSource fetches, digests, parses, upserts, tombstones, and records
// the dataset version for one adapter. The digest check (a non-cryptographic
// xxhash over the raw fetched bytes, the Go-ecosystem equivalent of the
// original's misleadingly-named compute_sha256, which is itself a
// DefaultHasher digest and not SHA-256) lets an unchanged upstream roster
// skip the upsert/tombstone work entirely.
func (o *Orchestrator) refreshSource(ctx context.Context, a adapters.Adapter) error {
	raw, err := a.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%s: fetch: %w", a.Name(), err)
	}

	digest := fmt.Sprintf("%x", xxhash.Sum64(raw))
	previous, err := o.store.LatestDigest(ctx, a.Name())
	if err != nil {
		return fmt.Errorf("%s: read previous digest: %w", a.Name(), err)
	}
	if previous != "" && previous == digest {
		logging.Info().Str("source", a.Name()).Msg("roster unchanged since last refresh, skipping")
		return nil
	}

	subjects, err := a.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: parse: %w", a.Name(), err)
	}

	version, err := o.store.NextVersion(ctx, a.Name())
	if err != nil {
		return fmt.Errorf("%s: next version: %w", a.Name(), err)
	}

	inserted, updated, err := o.store.Upsert(ctx, subjects, version)
	if err != nil {
		return fmt.Errorf("%s: upsert: %w", a.Name(), err)
	}

	tombstoned, err := o.store.Tombstone(ctx, a.Name(), version)
	if err != nil {
		return fmt.Errorf("%s: tombstone: %w", a.Name(), err)
	}

	if err := o.store.RecordDatasetVersion(ctx, store.DatasetVersion{
		Source:       a.Name(),
		Version:      version,
		Digest:       digest,
		SubjectCount: len(subjects),
	}); err != nil {
		return fmt.Errorf("%s: record dataset version: %w", a.Name(), err)
	}

	logging.Info().Str("source", a.Name()).Int64("version", version).
		Int("inserted", inserted).Int("updated", updated).Int64("tombstoned", tombstoned).
		Int("parsed", len(subjects)).Msg("source refresh complete")
	return nil
}
