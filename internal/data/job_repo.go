// Package data provides the persistence implementations for jobs and
// deliveries: PostgreSQL repositories built on pgx, an in-memory variant for
// tests and development, and a Redis-backed cache.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/data/pgxutil"
	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// JobRepo provides PostgreSQL persistence for ingestion jobs.
type JobRepo struct {
	DB *sql.DB
}

// NewJobRepo creates a new JobRepo with the given database connection.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db}
}

const jobColumns = `id, site_id, date, status, partner_outcomes, error, created_at, started_at, finished_at`

// Create inserts a new job row. The job must already carry its ID, status and
// createdAt; the row is durable before Create returns.
func (r *JobRepo) Create(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}
	outcomes, err := marshalOutcomes(job.PartnerOutcomes)
	if err != nil {
		return err
	}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO jobs (id, site_id, date, status, partner_outcomes, error, created_at, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, job.ID, job.SiteID, job.Date, job.Status, outcomes, job.Error, job.CreatedAt.UTC(), job.StartedAt, job.FinishedAt)
		return execErr
	}); err != nil {
		return apperrors.MapDBError(fmt.Errorf("create job: %w", err))
	}
	return nil
}

// GetByID returns one job by ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var out model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var cerr error
		out, cerr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return cerr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("job %q not found", id)
		}
		return nil, apperrors.MapDBError(fmt.Errorf("get job by id: %w", err))
	}
	return &out, nil
}

// MarkRunning transitions queued → running and stamps startedAt exactly once.
// It is idempotent: a job already past queued is left untouched.
func (r *JobRepo) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	var affected int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, execErr := conn.Exec(ctx, `
			UPDATE jobs SET status = $2, started_at = COALESCE(started_at, $3)
			WHERE id = $1 AND status = $4
		`, id, model.JobStatusRunning, startedAt.UTC(), model.JobStatusQueued)
		if execErr != nil {
			return execErr
		}
		affected = ct.RowsAffected()
		return nil
	}); err != nil {
		return apperrors.MapDBError(fmt.Errorf("mark job running: %w", err))
	}
	if affected == 0 {
		// Distinguish "already running" from "unknown job".
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// RecordPartnerOutcome appends one partner's terminal outcome into the
// partner_outcomes JSONB map. The insert-if-absent guard makes retried runs
// idempotent: the first recorded outcome per partner wins.
func (r *JobRepo) RecordPartnerOutcome(ctx context.Context, params core.PartnerOutcomeParams) error {
	outcome, err := json.Marshal(params.Outcome)
	if err != nil {
		return fmt.Errorf("encode partner outcome: %w", err)
	}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			UPDATE jobs
			SET partner_outcomes = partner_outcomes || jsonb_build_object($2::text, $3::jsonb)
			WHERE id = $1 AND NOT partner_outcomes ? $2::text
		`, params.JobID, params.PartnerID, outcome)
		return execErr
	}); err != nil {
		return apperrors.MapDBError(fmt.Errorf("record partner outcome: %w", err))
	}
	return nil
}

// Finalize transitions a non-terminal job to its terminal status and stamps
// finishedAt. Terminal jobs are never rewound.
func (r *JobRepo) Finalize(ctx context.Context, params core.FinalizeJobParams) error {
	if !params.Status.Terminal() {
		return apperrors.Validationf("finalize requires a terminal status, got %q", params.Status)
	}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			UPDATE jobs
			SET status = $2, error = COALESCE($3, error), finished_at = COALESCE(finished_at, $4)
			WHERE id = $1 AND status NOT IN ($5, $6, $7)
		`, params.JobID, params.Status, params.Error, params.FinishedAt.UTC(),
			model.JobStatusPartial, model.JobStatusCompleted, model.JobStatusFailed)
		return execErr
	}); err != nil {
		return apperrors.MapDBError(fmt.Errorf("finalize job: %w", err))
	}
	return nil
}

func marshalOutcomes(outcomes map[string]model.PartnerOutcome) ([]byte, error) {
	if outcomes == nil {
		outcomes = map[string]model.PartnerOutcome{}
	}
	b, err := json.Marshal(outcomes)
	if err != nil {
		return nil, fmt.Errorf("encode partner outcomes: %w", err)
	}
	return b, nil
}

var _ core.JobRepository = (*JobRepo)(nil)
