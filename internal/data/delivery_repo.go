package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/data/pgxutil"
	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// DeliveryRepo provides PostgreSQL persistence for normalized deliveries.
type DeliveryRepo struct {
	DB *sql.DB
}

// NewDeliveryRepo creates a new DeliveryRepo with the given database connection.
func NewDeliveryRepo(db *sql.DB) *DeliveryRepo {
	return &DeliveryRepo{DB: db}
}

const deliveryColumns = `id, site_id, partner_id, external_id, date, status, score, signed,
	delivered_at, payload, raw, warnings, ingested_at, last_job_id`

// Upsert inserts a delivery or replaces the existing row keyed by
// (site_id, partner_id, external_id). A stale write, one whose ingested_at is
// older than the stored row, leaves the row untouched. Equal timestamps break
// on the writing jobs' creation order so concurrent re-runs are deterministic.
func (r *DeliveryRepo) Upsert(ctx context.Context, d *model.Delivery) error {
	if d == nil {
		return errors.New("delivery is required")
	}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO deliveries (id, site_id, partner_id, external_id, date, status, score, signed,
				delivered_at, payload, raw, warnings, ingested_at, last_job_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (site_id, partner_id, external_id) DO UPDATE SET
				date         = EXCLUDED.date,
				status       = EXCLUDED.status,
				score        = EXCLUDED.score,
				signed       = EXCLUDED.signed,
				delivered_at = EXCLUDED.delivered_at,
				payload      = EXCLUDED.payload,
				raw          = EXCLUDED.raw,
				warnings     = EXCLUDED.warnings,
				ingested_at  = EXCLUDED.ingested_at,
				last_job_id  = EXCLUDED.last_job_id
			WHERE EXCLUDED.ingested_at > deliveries.ingested_at
			   OR (EXCLUDED.ingested_at = deliveries.ingested_at
			       AND COALESCE((SELECT j.created_at FROM jobs j WHERE j.id = EXCLUDED.last_job_id), 'epoch'::timestamptz)
			        >= COALESCE((SELECT j.created_at FROM jobs j WHERE j.id = deliveries.last_job_id), 'epoch'::timestamptz))
		`, d.ID, d.SiteID, d.PartnerID, d.ExternalID, d.Date, d.Status, d.Score, d.Signed,
			d.DeliveredAt.UTC(), nullableJSON(d.Payload), nullableJSON(d.Raw), d.Warnings,
			d.IngestedAt.UTC(), d.LastJobID)
		return execErr
	}); err != nil {
		return apperrors.MapDBError(fmt.Errorf("upsert delivery: %w", err))
	}
	return nil
}

// Query returns one page of deliveries matching the given filters, newest
// first, together with the total match count before pagination.
func (r *DeliveryRepo) Query(ctx context.Context, opts model.DeliveryListOptions) (*model.DeliveryPage, error) {
	where, args := buildDeliveryConditions(opts)

	page := &model.DeliveryPage{
		Limit:  opts.Limit,
		Offset: opts.Offset,
		Data:   []model.Delivery{},
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		if qerr := conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM deliveries`+where, args...,
		).Scan(&page.TotalCount); qerr != nil {
			return qerr
		}

		listArgs := append(append([]any{}, args...), opts.Limit, opts.Offset)
		query := fmt.Sprintf(`SELECT %s FROM deliveries%s ORDER BY ingested_at DESC, id DESC LIMIT $%d OFFSET $%d`,
			deliveryColumns, where, len(args)+1, len(args)+2)

		rows, qerr := conn.Query(ctx, query, listArgs...)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		data, cerr := pgx.CollectRows(rows, pgx.RowToStructByName[model.Delivery])
		if cerr != nil {
			return cerr
		}
		page.Data = data
		return nil
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("query deliveries: %w", err))
	}
	return page, nil
}

func buildDeliveryConditions(opts model.DeliveryListOptions) (string, []any) {
	var conds []string
	var args []any
	next := func() int { return len(args) }

	if opts.SiteID != nil {
		args = append(args, *opts.SiteID)
		conds = append(conds, fmt.Sprintf("site_id = $%d", next()))
	}
	if opts.Status != nil {
		args = append(args, *opts.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", next()))
	}
	if opts.MinScore != nil {
		args = append(args, *opts.MinScore)
		conds = append(conds, fmt.Sprintf("score >= $%d", next()))
	}
	if opts.JobID != nil {
		args = append(args, *opts.JobID)
		conds = append(conds, fmt.Sprintf("last_job_id = $%d", next()))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// nullableJSON maps an empty payload to SQL NULL so the JSONB column never
// stores an invalid empty document.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

var _ core.DeliveryRepository = (*DeliveryRepo)(nil)
