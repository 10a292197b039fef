package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/data"
	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/domain/normalize"
	"github.com/krishnx/vestigas/internal/domain/scoring"
	apperrors "github.com/krishnx/vestigas/internal/errors"
	"github.com/krishnx/vestigas/internal/observability/metrics"
	"github.com/krishnx/vestigas/internal/observability/statsd"
)

const defaultResultCacheTTL = 5 * time.Minute

// IngestDeps groups the repositories and engines the ingest service drives.
type IngestDeps struct {
	Jobs       core.JobRepository      // Required
	Deliveries core.DeliveryRepository // Required
	Fetcher    *FetchService           // Required
	Normalizer *normalize.Engine       // Required
	Scorer     *scoring.Engine         // Required
	Cache      core.CacheRepository    // Optional: finished-result cache
	Metrics    statsd.Sink             // Optional: pipeline metrics
}

// IngestServiceOptions groups dependencies for IngestService.
type IngestServiceOptions struct {
	Deps           IngestDeps
	ResultCacheTTL time.Duration // Optional: defaults to 5m
	Logger         *slog.Logger  // Optional: structured logger
}

// IngestService owns the ingestion job lifecycle: it accepts fetch requests,
// runs the fetch/normalize/score/store pipeline in the background, and serves
// job status and results.
type IngestService struct {
	jobs       core.JobRepository
	deliveries core.DeliveryRepository
	fetcher    *FetchService
	normalizer *normalize.Engine
	scorer     *scoring.Engine
	cache      core.CacheRepository
	cacheTTL   time.Duration
	metrics    statsd.Sink

	logger       *slog.Logger
	timeProvider data.TimeProvider

	running sync.WaitGroup
}

// NewIngestService constructs a new IngestService.
func NewIngestService(opts IngestServiceOptions) (*IngestService, error) {
	d := opts.Deps
	switch {
	case d.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case d.Deliveries == nil:
		return nil, errors.New("DeliveryRepository is required")
	case d.Fetcher == nil:
		return nil, errors.New("FetchService is required")
	case d.Normalizer == nil:
		return nil, errors.New("normalize engine is required")
	case d.Scorer == nil:
		return nil, errors.New("scoring engine is required")
	}

	ttl := opts.ResultCacheTTL
	if ttl <= 0 {
		ttl = defaultResultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestService{
		jobs:         d.Jobs,
		deliveries:   d.Deliveries,
		fetcher:      d.Fetcher,
		normalizer:   d.Normalizer,
		scorer:       d.Scorer,
		cache:        d.Cache,
		cacheTTL:     ttl,
		metrics:      d.Metrics,
		logger:       logger.With("component", "ingest"),
		timeProvider: &data.RealTimeProvider{},
	}, nil
}

// SetTimeProvider overrides the clock. Intended for tests.
func (s *IngestService) SetTimeProvider(tp data.TimeProvider) {
	s.timeProvider = tp
}

// CreateJob validates the request, persists a queued job, and starts the
// ingestion pipeline in the background. It returns as soon as the job row is
// durable.
func (s *IngestService) CreateJob(ctx context.Context, req model.CreateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.timeProvider.Now().UTC()
	job := &model.Job{
		ID:              uuid.NewString(),
		SiteID:          req.SiteID,
		Date:            req.Date,
		Status:          model.JobStatusQueued,
		PartnerOutcomes: map[string]model.PartnerOutcome{},
		CreatedAt:       now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		// The pipeline outlives the request that enqueued it.
		s.run(context.WithoutCancel(ctx), job)
	}()

	return job, nil
}

// Wait blocks until all in-flight ingestion pipelines finish. Used during
// shutdown and by tests.
func (s *IngestService) Wait() {
	s.running.Wait()
}

// GetStatus returns the current state of a job.
func (s *IngestService) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// GetResults returns one page of the deliveries a job stored. A job that has
// not finished yet yields an empty result set alongside its current status.
// Pages for finished jobs are cached.
func (s *IngestService) GetResults(ctx context.Context, jobID string, limit, offset int) (*model.JobResults, error) {
	if limit <= 0 {
		return nil, apperrors.ValidationField("limit", "must be greater than zero")
	}
	if offset < 0 {
		return nil, apperrors.ValidationField("offset", "must not be negative")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	results := &model.JobResults{
		JobID:           job.ID,
		Status:          job.Status,
		Deliveries:      []model.Delivery{},
		PartnerOutcomes: job.PartnerOutcomes,
	}
	if !job.Status.Terminal() {
		return results, nil
	}

	cacheKey := resultCacheKey(jobID, limit, offset)
	if cached := s.cachedResults(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	page, err := s.deliveries.Query(ctx, model.DeliveryListOptions{
		JobID:  &jobID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("query job results: %w", err)
	}
	results.TotalCount = page.TotalCount
	results.Deliveries = page.Data

	s.storeCachedResults(ctx, cacheKey, results)
	return results, nil
}

func resultCacheKey(jobID string, limit, offset int) string {
	return fmt.Sprintf("job_results:%s:%d:%d", jobID, limit, offset)
}

func (s *IngestService) cachedResults(ctx context.Context, key string) *model.JobResults {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "result cache read failed", "key", key, "err", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var results model.JobResults
	if err := json.Unmarshal(raw, &results); err != nil {
		s.logger.WarnContext(ctx, "result cache entry corrupt", "key", key, "err", err)
		return nil
	}
	return &results
}

func (s *IngestService) storeCachedResults(ctx context.Context, key string, results *model.JobResults) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "result cache write failed", "key", key, "err", err)
	}
}

// run drives one job through the full pipeline. It never panics the caller;
// all failures end in a terminal job status.
func (s *IngestService) run(ctx context.Context, job *model.Job) {
	logger := s.logger.With("job_id", job.ID, "site_id", job.SiteID, "date", job.Date)
	startedAt := s.timeProvider.Now()

	if err := s.jobs.MarkRunning(ctx, job.ID, startedAt); err != nil {
		logger.ErrorContext(ctx, "failed to mark job running", "err", err)
		s.finalize(ctx, job.ID, model.JobStatusFailed, strPtr("internal error starting job"))
		metrics.EmitJobFinished(s.metrics, metrics.JobMetric{Status: string(model.JobStatusFailed)})
		return
	}

	fetchResults, err := s.fetcher.FetchAll(ctx, job.SiteID, job.Date)
	if err != nil {
		logger.ErrorContext(ctx, "fetch fan-out aborted", "err", err)
		s.finalize(ctx, job.ID, model.JobStatusFailed, strPtr("fetch aborted: "+err.Error()))
		metrics.EmitJobFinished(s.metrics, metrics.JobMetric{Status: string(model.JobStatusFailed)})
		return
	}

	var tally partnerTally
	for _, fr := range fetchResults {
		outcome, storageFailures := s.ingestPartner(ctx, job, fr, logger)
		tally.storageFailures += storageFailures
		if outcome.Succeeded {
			tally.succeeded++
		} else {
			tally.failed++
			if outcome.Error != nil {
				tally.failures = append(tally.failures, fr.PartnerID+": "+*outcome.Error)
			}
		}
		metrics.EmitPartnerOutcome(s.metrics, metrics.PartnerMetric{
			PartnerID: fr.PartnerID,
			Attempts:  fr.Attempts,
			Stored:    outcome.StoredCount,
			Errors:    outcome.ErrorCount,
			Err:       fr.Err,
		})
		if err := s.jobs.RecordPartnerOutcome(ctx, core.PartnerOutcomeParams{
			JobID:     job.ID,
			PartnerID: fr.PartnerID,
			Outcome:   outcome,
		}); err != nil {
			logger.ErrorContext(ctx, "failed to record partner outcome",
				"partner", fr.PartnerID, "err", err)
		}
	}

	status, errMsg := terminalStatus(tally)
	s.finalize(ctx, job.ID, status, errMsg)
	metrics.EmitJobFinished(s.metrics, metrics.JobMetric{
		Status:   string(status),
		Duration: s.timeProvider.Now().Sub(startedAt),
	})
	logger.InfoContext(ctx, "job finished",
		"status", status, "partners_ok", tally.succeeded, "partners_failed", tally.failed)
}

// ingestPartner normalizes, scores and stores every record one partner
// returned. Record-level failures are tallied without failing the partner
// unless no record survives; the second return value counts upserts lost to
// storage errors so the job can distinguish a storage outage from bad data.
func (s *IngestService) ingestPartner(
	ctx context.Context,
	job *model.Job,
	fr PartnerFetchResult,
	logger *slog.Logger,
) (model.PartnerOutcome, int) {
	if fr.Err != nil {
		msg := fr.Err.Error()
		return model.PartnerOutcome{Succeeded: false, Error: &msg}, 0
	}

	outcome := model.PartnerOutcome{Succeeded: true, RecordCount: len(fr.Records)}
	storageFailures := 0
	now := s.timeProvider.Now().UTC()

	for _, raw := range fr.Records {
		delivery, err := s.normalizer.Normalize(fr.PartnerID, raw)
		if err != nil {
			outcome.ErrorCount++
			logger.WarnContext(ctx, "record rejected",
				"partner", fr.PartnerID, "err", err)
			continue
		}

		delivery.Score = s.scorer.Score(delivery)
		delivery.IngestedAt = now
		delivery.LastJobID = job.ID

		if err := s.deliveries.Upsert(ctx, delivery); err != nil {
			outcome.ErrorCount++
			storageFailures++
			logger.ErrorContext(ctx, "delivery upsert failed",
				"partner", fr.PartnerID, "delivery_id", delivery.ID, "err", err)
			continue
		}
		outcome.StoredCount++
	}

	// A partner that returned records but stored none of them has failed,
	// whatever the per-record reasons were.
	if outcome.RecordCount > 0 && outcome.StoredCount == 0 {
		outcome.Succeeded = false
		msg := fmt.Sprintf("no records stored: %d of %d rejected", outcome.ErrorCount, outcome.RecordCount)
		if storageFailures == outcome.ErrorCount {
			msg = fmt.Sprintf("no records stored: %d upserts failed", storageFailures)
		}
		outcome.Error = &msg
	}
	return outcome, storageFailures
}

// partnerTally accumulates per-partner results while a job runs.
type partnerTally struct {
	succeeded       int
	failed          int
	storageFailures int
	failures        []string
}

// terminalStatus maps the partner tallies onto the job's final status. An
// empty partner set completes vacuously; storage failures cap an otherwise
// clean run at partial.
func terminalStatus(t partnerTally) (model.JobStatus, *string) {
	sort.Strings(t.failures)
	summary := strings.Join(t.failures, "; ")
	switch {
	case t.failed == 0 && t.storageFailures == 0:
		return model.JobStatusCompleted, nil
	case t.failed == 0:
		return model.JobStatusPartial, strPtr(fmt.Sprintf("%d deliveries failed to store", t.storageFailures))
	case t.succeeded > 0:
		return model.JobStatusPartial, strPtr(summary)
	default:
		return model.JobStatusFailed, strPtr(summary)
	}
}

func (s *IngestService) finalize(ctx context.Context, jobID string, status model.JobStatus, errMsg *string) {
	if err := s.jobs.Finalize(ctx, core.FinalizeJobParams{
		JobID:      jobID,
		Status:     status,
		Error:      errMsg,
		FinishedAt: s.timeProvider.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to finalize job", "job_id", jobID, "err", err)
	}
}

func strPtr(s string) *string { return &s }
