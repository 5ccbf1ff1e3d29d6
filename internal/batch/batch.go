// Package batch implements the Batch Job Runner (C13): accepts a batch of
// screening records, processes them in the background against the full
// query path (C4/C5/C6 via internal/screening), and lets a caller poll job
// progress without blocking the submitting request.
//
// Grounded on original_source/crates/screening-api/src/batch.rs's
// process_batch: Rust's tokio::spawn + Arc<RwLock<HashMap<String, BatchJob>>>
// becomes a goroutine per job plus a sync.RWMutex-guarded map, the same
// translation internal/orchestrator and internal/monitoring already apply
// for their own background work.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/screening"
)

// Status mirrors BatchStatus.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is a single screening request within a batch submission.
type Record struct {
	ReferenceID string
	Name        string
	Country     string
	DOBYear     int
}

// Result is one record's outcome, carried on the job once it completes.
type Result struct {
	ReferenceID string
	Name        string
	Hits        []models.Hit
	CheckedAt   time.Time
}

// Job tracks a batch submission's progress, mirroring BatchJob.
type Job struct {
	ID               string
	TenantID         string
	Status           Status
	TotalRecords     int
	ProcessedRecords int
	CreatedAt        time.Time
	Results          []Result
	Err              string
}

// Screener is the subset of *screening.Screener Runner depends on, kept as
// an interface so batch tests run against a fake query path.
type Screener interface {
	Screen(ctx context.Context, req models.ScreenRequest, limit int, policy screening.Policy) (models.ScreenResult, error)
}

// PolicyProvider resolves a tenant's risk policy, the same seam C7's
// Rescreen uses.
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID string) (screening.Policy, error)
}

// batchFanout bounds how many hits the query path returns per record; a
// batch caller gets the same shortlist depth as an interactive screen.
const batchFanout = 20

// Runner tracks in-flight and completed batch jobs in memory. Grounded on
// process_batch: there is no persistence layer for batch jobs in the
// original either — a job's results live only as long as the process does,
// which this port preserves rather than inventing a durability guarantee
// the spec never asks for.
type Runner struct {
	screener Screener
	policies PolicyProvider

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRunner builds a Runner over a Screener. policies may be nil, in which
// case every job is screened under screening.DefaultPolicy().
func NewRunner(screener Screener, policies PolicyProvider) *Runner {
	return &Runner{
		screener: screener,
		policies: policies,
		jobs:     make(map[string]*Job),
	}
}

// Submit creates a job in Processing state and begins working through its
// records in a background goroutine, returning immediately with the job id
// so the caller can poll Get.
func (r *Runner) Submit(ctx context.Context, tenantID string, records []Record) *Job {
	job := &Job{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Status:       StatusProcessing,
		TotalRecords: len(records),
		CreatedAt:    time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	go r.process(context.WithoutCancel(ctx), job, records)

	return job
}

// Get returns the current (possibly still-processing) state of a job.
func (r *Runner) Get(jobID string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	return job, ok
}

func (r *Runner) process(ctx context.Context, job *Job, records []Record) {
	policy := screening.DefaultPolicy()
	if r.policies != nil {
		if p, err := r.policies.PolicyFor(ctx, job.TenantID); err == nil {
			policy = p
		} else {
			logging.Warn().Err(err).Str("job_id", job.ID).Msg("failed to resolve risk policy, using default for batch job")
		}
	}

	results := make([]Result, 0, len(records))
	for i, rec := range records {
		screenResult, err := r.screener.Screen(ctx, models.ScreenRequest{
			ReferenceID: rec.ReferenceID,
			Name:        rec.Name,
			Country:     rec.Country,
			DOBYear:     rec.DOBYear,
		}, batchFanout, policy)
		if err != nil {
			logging.Warn().Err(err).Str("job_id", job.ID).Str("reference_id", rec.ReferenceID).
				Msg("batch record screen failed, marking job failed")
			r.markFailed(job, err)
			return
		}

		results = append(results, Result{
			ReferenceID: rec.ReferenceID,
			Name:        rec.Name,
			Hits:        screenResult.Hits,
			CheckedAt:   time.Now(),
		})

		r.mu.Lock()
		job.ProcessedRecords = i + 1
		r.mu.Unlock()
	}

	r.mu.Lock()
	job.Status = StatusCompleted
	job.Results = results
	r.mu.Unlock()
}

func (r *Runner) markFailed(job *Job, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.Status = StatusFailed
	job.Err = err.Error()
}
