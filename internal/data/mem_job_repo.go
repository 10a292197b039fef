package data

import (
	"context"
	"sync"
	"time"

	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// MemJobRepo is an in-memory JobRepository used by unit tests and local
// development without a database.
type MemJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemJobRepo creates an empty in-memory job repository.
func NewMemJobRepo() *MemJobRepo {
	return &MemJobRepo{jobs: map[string]*model.Job{}}
}

func (r *MemJobRepo) Create(_ context.Context, job *model.Job) error {
	if job == nil {
		return apperrors.Validation("job is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return apperrors.Conflict("job " + job.ID + " already exists")
	}
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// JobCreatedAt implements JobCreatedAtResolver for upsert tie-breaking.
func (r *MemJobRepo) JobCreatedAt(id string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return job.CreatedAt, true
}

func (r *MemJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %q not found", id)
	}
	return copyJob(job), nil
}

func (r *MemJobRepo) MarkRunning(_ context.Context, id string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return apperrors.NotFoundf("job %q not found", id)
	}
	if job.Status != model.JobStatusQueued {
		return nil
	}
	job.Status = model.JobStatusRunning
	if job.StartedAt == nil {
		at := startedAt.UTC()
		job.StartedAt = &at
	}
	return nil
}

func (r *MemJobRepo) RecordPartnerOutcome(_ context.Context, params core.PartnerOutcomeParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.JobID]
	if !ok {
		return apperrors.NotFoundf("job %q not found", params.JobID)
	}
	if job.PartnerOutcomes == nil {
		job.PartnerOutcomes = map[string]model.PartnerOutcome{}
	}
	// First recorded outcome per partner wins.
	if _, exists := job.PartnerOutcomes[params.PartnerID]; exists {
		return nil
	}
	job.PartnerOutcomes[params.PartnerID] = params.Outcome
	return nil
}

func (r *MemJobRepo) Finalize(_ context.Context, params core.FinalizeJobParams) error {
	if !params.Status.Terminal() {
		return apperrors.Validationf("finalize requires a terminal status, got %q", params.Status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[params.JobID]
	if !ok {
		return apperrors.NotFoundf("job %q not found", params.JobID)
	}
	if job.Status.Terminal() {
		return nil
	}
	job.Status = params.Status
	if params.Error != nil {
		msg := *params.Error
		job.Error = &msg
	}
	if job.FinishedAt == nil {
		at := params.FinishedAt.UTC()
		job.FinishedAt = &at
	}
	return nil
}

func copyJob(in *model.Job) *model.Job {
	out := *in
	if in.PartnerOutcomes != nil {
		out.PartnerOutcomes = make(map[string]model.PartnerOutcome, len(in.PartnerOutcomes))
		for k, v := range in.PartnerOutcomes {
			out.PartnerOutcomes[k] = v
		}
	}
	out.Error = copyStringPtr(in.Error)
	out.StartedAt = copyTimePtr(in.StartedAt)
	out.FinishedAt = copyTimePtr(in.FinishedAt)
	return &out
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ core.JobRepository = (*MemJobRepo)(nil)
