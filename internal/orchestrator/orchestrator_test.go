package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cursorworkshop/aegistry/internal/adapters"
	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/store"
)

var _ startStopper = (*Orchestrator)(nil)
var _ adapters.Adapter = (*fakeAdapter)(nil)

type fakeAdapter struct {
	name       string
	fetchBytes []byte
	fetchErr   error
	subjects   []models.Subject
	parseErr   error
	fetchCalls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]byte, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchBytes, nil
}

func (f *fakeAdapter) Parse(data []byte) ([]models.Subject, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.subjects, nil
}

type fakeStore struct {
	digests    map[string]string
	versions   map[string]int64
	upserted   map[string][]models.Subject
	recordErr  error
	tombstoned map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		digests:    make(map[string]string),
		versions:   make(map[string]int64),
		upserted:   make(map[string][]models.Subject),
		tombstoned: make(map[string]int64),
	}
}

func (s *fakeStore) NextVersion(ctx context.Context, source string) (int64, error) {
	return s.versions[source] + 1, nil
}

func (s *fakeStore) Upsert(ctx context.Context, subjects []models.Subject, version int64) (int, int, error) {
	s.upserted[fmt.Sprintf("%d", version)] = subjects
	return len(subjects), 0, nil
}

func (s *fakeStore) Tombstone(ctx context.Context, source string, version int64) (int64, error) {
	s.tombstoned[source]++
	return 0, nil
}

func (s *fakeStore) RecordDatasetVersion(ctx context.Context, dv store.DatasetVersion) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.versions[dv.Source] = dv.Version
	s.digests[dv.Source] = dv.Digest
	return nil
}

func (s *fakeStore) LatestDigest(ctx context.Context, source string) (string, error) {
	return s.digests[source], nil
}

type fakeRescreener struct {
	calls int
	err   error
}

func (r *fakeRescreener) RescreenAll(ctx context.Context) error {
	r.calls++
	return r.err
}

func testRefreshConfig() config.RefreshConfig {
	return config.RefreshConfig{
		Interval:       time.Hour,
		FetchTimeout:   time.Second,
		RetryAttempts:  1,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestRunOnceUpsertsAndTombstonesAndRescreens(t *testing.T) {
	s := newFakeStore()
	a := &fakeAdapter{
		name:       "EU",
		fetchBytes: []byte("roster-v1"),
		subjects:   []models.Subject{{Source: "EU", SourceRef: "1", PrimaryName: "Jane Doe"}},
	}
	rescreener := &fakeRescreener{}

	o := New(s, []adapters.Adapter{a}, rescreener, testRefreshConfig())
	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.tombstoned["EU"] != 1 {
		t.Fatalf("expected tombstone pass to run once, got %d", s.tombstoned["EU"])
	}
	if rescreener.calls != 1 {
		t.Fatalf("expected rescreener invoked once, got %d", rescreener.calls)
	}
	if s.digests["EU"] == "" {
		t.Fatal("expected digest recorded")
	}
}

func TestRunOnceSkipsUnchangedRoster(t *testing.T) {
	s := newFakeStore()
	a := &fakeAdapter{name: "EU", fetchBytes: []byte("roster-v1")}

	o := New(s, []adapters.Adapter{a}, nil, testRefreshConfig())
	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	firstTombstoneCount := s.tombstoned["EU"]

	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if s.tombstoned["EU"] != firstTombstoneCount {
		t.Fatalf("expected no additional tombstone pass for unchanged roster, got %d vs %d",
			s.tombstoned["EU"], firstTombstoneCount)
	}
}

func TestRunOnceContinuesAfterOneSourceFails(t *testing.T) {
	s := newFakeStore()
	failing := &fakeAdapter{name: "BROKEN", fetchErr: errors.New("upstream down")}
	healthy := &fakeAdapter{name: "EU", fetchBytes: []byte("roster-v1"),
		subjects: []models.Subject{{Source: "EU", SourceRef: "1", PrimaryName: "Jane Doe"}}}

	o := New(s, []adapters.Adapter{failing, healthy}, nil, testRefreshConfig())
	if err := o.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected partial success to not error, got: %v", err)
	}
	if s.tombstoned["EU"] != 1 {
		t.Fatal("expected healthy source to still be processed")
	}
}

func TestRunOnceReturnsErrorWhenAllSourcesFail(t *testing.T) {
	s := newFakeStore()
	a := &fakeAdapter{name: "BROKEN", fetchErr: errors.New("upstream down")}

	o := New(s, []adapters.Adapter{a}, nil, testRefreshConfig())
	if err := o.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when every source fails")
	}
}
