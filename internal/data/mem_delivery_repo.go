package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// JobCreatedAtResolver reports when the job behind a write was created. It
// breaks upsert ties between writes carrying the same ingested_at.
type JobCreatedAtResolver interface {
	JobCreatedAt(jobID string) (time.Time, bool)
}

// MemDeliveryRepo is an in-memory DeliveryRepository used by unit tests and
// local development without a database. Upserts are serialized under one
// write lock so concurrent writers cannot interleave a read-modify-write.
type MemDeliveryRepo struct {
	mu         sync.RWMutex
	deliveries map[string]*model.Delivery
	jobs       JobCreatedAtResolver
}

// NewMemDeliveryRepo creates an empty in-memory delivery repository.
func NewMemDeliveryRepo() *MemDeliveryRepo {
	return &MemDeliveryRepo{deliveries: map[string]*model.Delivery{}}
}

// SetJobResolver wires the job store used to order writes that share an
// ingested_at timestamp. Without one such ties fall to the last writer.
func (r *MemDeliveryRepo) SetJobResolver(jobs JobCreatedAtResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = jobs
}

func (r *MemDeliveryRepo) Upsert(_ context.Context, d *model.Delivery) error {
	if d == nil {
		return apperrors.Validation("delivery is required")
	}
	key := d.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.deliveries[key]; ok {
		if d.IngestedAt.Before(existing.IngestedAt) {
			return nil
		}
		if d.IngestedAt.Equal(existing.IngestedAt) && r.fromOlderJob(d.LastJobID, existing.LastJobID) {
			return nil
		}
	}
	r.deliveries[key] = copyDelivery(d)
	return nil
}

// fromOlderJob reports whether the incoming write belongs to a job created
// before the stored row's job. Callers hold the write lock.
func (r *MemDeliveryRepo) fromOlderJob(incomingJobID, storedJobID string) bool {
	if r.jobs == nil || incomingJobID == storedJobID {
		return false
	}
	incoming, ok := r.jobs.JobCreatedAt(incomingJobID)
	if !ok {
		return false
	}
	stored, ok := r.jobs.JobCreatedAt(storedJobID)
	if !ok {
		return false
	}
	return incoming.Before(stored)
}

func (r *MemDeliveryRepo) Query(_ context.Context, opts model.DeliveryListOptions) (*model.DeliveryPage, error) {
	r.mu.RLock()
	matched := make([]*model.Delivery, 0, len(r.deliveries))
	for _, d := range r.deliveries {
		if matchesDelivery(d, opts) {
			matched = append(matched, d)
		}
	}
	r.mu.RUnlock()

	// Newest first; ties broken on ID so pages are stable across calls.
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].IngestedAt.Equal(matched[j].IngestedAt) {
			return matched[i].IngestedAt.After(matched[j].IngestedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := &model.DeliveryPage{
		TotalCount: len(matched),
		Limit:      opts.Limit,
		Offset:     opts.Offset,
		Data:       []model.Delivery{},
	}
	start := opts.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	for _, d := range matched[start:end] {
		page.Data = append(page.Data, *copyDelivery(d))
	}
	return page, nil
}

func matchesDelivery(d *model.Delivery, opts model.DeliveryListOptions) bool {
	if opts.SiteID != nil && d.SiteID != *opts.SiteID {
		return false
	}
	if opts.Status != nil && d.Status != *opts.Status {
		return false
	}
	if opts.MinScore != nil && d.Score < *opts.MinScore {
		return false
	}
	if opts.JobID != nil && d.LastJobID != *opts.JobID {
		return false
	}
	return true
}

func copyDelivery(in *model.Delivery) *model.Delivery {
	out := *in
	if in.Payload != nil {
		out.Payload = append([]byte(nil), in.Payload...)
	}
	if in.Raw != nil {
		out.Raw = append([]byte(nil), in.Raw...)
	}
	if in.Warnings != nil {
		out.Warnings = append([]string(nil), in.Warnings...)
	}
	return &out
}

var _ core.DeliveryRepository = (*MemDeliveryRepo)(nil)
