package data_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnx/vestigas/internal/data"
	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/testutil"
)

func TestDeliveryRepo_UpsertAndQuery(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewDeliveryRepo(db)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)

		d := testDelivery("ORD-1", base)
		d.Payload = []byte(`{"note":"first"}`)
		d.Raw = []byte(`{"order_id":"ORD-1"}`)
		d.Warnings = []string{"missing signed flag"}
		require.NoError(t, repo.Upsert(ctx, d))

		page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, page.TotalCount)
		got := page.Data[0]
		assert.Equal(t, d.ID, got.ID)
		assert.Equal(t, model.DeliveryStatusDelivered, got.Status)
		assert.JSONEq(t, `{"note":"first"}`, string(got.Payload))
		assert.Equal(t, []string{"missing signed flag"}, got.Warnings)

		// A later write for the same key updates in place.
		update := testDelivery("ORD-1", base.Add(time.Minute))
		update.Status = model.DeliveryStatusCancelled
		update.LastJobID = "job-2"
		require.NoError(t, repo.Upsert(ctx, update))

		page, err = repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, page.TotalCount)
		assert.Equal(t, model.DeliveryStatusCancelled, page.Data[0].Status)
		assert.Equal(t, "job-2", page.Data[0].LastJobID)

		// An older write for the same key is dropped.
		stale := testDelivery("ORD-1", base.Add(-time.Hour))
		stale.Status = model.DeliveryStatusPending
		require.NoError(t, repo.Upsert(ctx, stale))

		page, err = repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, page.TotalCount)
		assert.Equal(t, model.DeliveryStatusCancelled, page.Data[0].Status)
	})
}

func TestDeliveryRepo_UpsertEqualTimestampBreaksOnJobOrder(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		jobs := data.NewJobRepo(db)
		repo := data.NewDeliveryRepo(db)
		ctx := context.Background()

		older := newQueuedJob("job-older")
		newer := newQueuedJob("job-newer")
		newer.CreatedAt = older.CreatedAt.Add(time.Minute)
		require.NoError(t, jobs.Create(ctx, older))
		require.NoError(t, jobs.Create(ctx, newer))

		ingested := time.Now().UTC().Truncate(time.Millisecond)

		write := func(externalID, jobID string) {
			d := testDelivery(externalID, ingested)
			d.LastJobID = jobID
			if jobID == "job-older" {
				d.Status = model.DeliveryStatusPending
			}
			require.NoError(t, repo.Upsert(ctx, d))
		}

		// The older job's write loses the tie in either arrival order.
		write("ORD-A", "job-newer")
		write("ORD-A", "job-older")
		write("ORD-B", "job-older")
		write("ORD-B", "job-newer")

		page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 2, page.TotalCount)
		for _, got := range page.Data {
			assert.Equal(t, "job-newer", got.LastJobID, got.ExternalID)
			assert.Equal(t, model.DeliveryStatusDelivered, got.Status, got.ExternalID)
		}
	})
}

func TestDeliveryRepo_QueryFiltersAndPagination(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewDeliveryRepo(db)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)

		const total = 7
		for i := range total {
			d := testDelivery(fmt.Sprintf("ORD-%02d", i), base.Add(time.Duration(i)*time.Second))
			if i%2 == 1 {
				d.Status = model.DeliveryStatusPending
				d.Score = 2.0
			}
			require.NoError(t, repo.Upsert(ctx, d))
		}

		status := model.DeliveryStatusPending
		page, err := repo.Query(ctx, model.DeliveryListOptions{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)

		minScore := 4.0
		page, err = repo.Query(ctx, model.DeliveryListOptions{MinScore: &minScore, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 4, page.TotalCount)

		siteID := "site-1"
		page, err = repo.Query(ctx, model.DeliveryListOptions{SiteID: &siteID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, total, page.TotalCount)

		jobID := "job-1"
		page, err = repo.Query(ctx, model.DeliveryListOptions{JobID: &jobID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, total, page.TotalCount)

		// Pages are newest first and never overlap.
		seen := map[string]struct{}{}
		for offset := 0; offset < total; offset += 3 {
			page, err = repo.Query(ctx, model.DeliveryListOptions{Limit: 3, Offset: offset})
			require.NoError(t, err)
			assert.Equal(t, total, page.TotalCount)
			for _, d := range page.Data {
				_, dup := seen[d.ID]
				assert.False(t, dup, "delivery %s returned twice", d.ExternalID)
				seen[d.ID] = struct{}{}
			}
		}
		assert.Len(t, seen, total)

		page, err = repo.Query(ctx, model.DeliveryListOptions{Limit: 3})
		require.NoError(t, err)
		require.Len(t, page.Data, 3)
		assert.Equal(t, "ORD-06", page.Data[0].ExternalID)
	})
}
