// Package core defines the ports between the service layer and its
// collaborators (persistence, partners, cache). Services depend on these
// interfaces, never on concrete implementations.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/krishnx/vestigas/internal/domain/model"
)

// FinalizeJobParams groups parameters for JobRepository.Finalize to keep the
// parameter count ≤3.
type FinalizeJobParams struct {
	JobID      string
	Status     model.JobStatus
	Error      *string
	FinishedAt time.Time
}

// PartnerOutcomeParams groups parameters for JobRepository.RecordPartnerOutcome.
type PartnerOutcomeParams struct {
	JobID     string
	PartnerID string
	Outcome   model.PartnerOutcome
}

// JobRepository defines persistence for ingestion jobs. Every transition must
// be durable before it becomes observable to readers.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// MarkRunning transitions queued → running and stamps startedAt exactly once.
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	// RecordPartnerOutcome appends one partner's terminal outcome. Written
	// exactly once per partner per job.
	RecordPartnerOutcome(ctx context.Context, params PartnerOutcomeParams) error
	// Finalize transitions running → partial|completed|failed and stamps finishedAt.
	Finalize(ctx context.Context, params FinalizeJobParams) error
}

// DeliveryRepository defines idempotent persistence and the indexed query
// surface over canonical deliveries.
type DeliveryRepository interface {
	// Upsert writes a delivery keyed by (siteID, partnerID, externalID).
	// Repeated writes for the same key update in place and preserve the ID.
	Upsert(ctx context.Context, d *model.Delivery) error
	// Query returns one page of deliveries matching the filter, ordered by
	// ingestedAt descending with ID as tiebreak.
	Query(ctx context.Context, opts model.DeliveryListOptions) (*model.DeliveryPage, error)
}

// PartnerClient is the uniform interface to one external logistics partner.
// Implementations are stateless; errors must be classified transient
// (retryable) or permanent via the errors package codes.
type PartnerClient interface {
	ID() string
	Fetch(ctx context.Context, siteID, date string) ([]json.RawMessage, error)
}

// CacheRepository defines byte-oriented cache operations used for serving
// finished job results to pollers.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}
