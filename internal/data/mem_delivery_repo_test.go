package data_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnx/vestigas/internal/data"
	"github.com/krishnx/vestigas/internal/domain/model"
)

func testDelivery(externalID string, ingestedAt time.Time) *model.Delivery {
	return &model.Delivery{
		ID:          model.DeliveryID("site-1", "partner_a", externalID),
		SiteID:      "site-1",
		PartnerID:   "partner_a",
		ExternalID:  externalID,
		Date:        "2024-05-01",
		Status:      model.DeliveryStatusDelivered,
		Score:       5.0,
		Signed:      true,
		DeliveredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		IngestedAt:  ingestedAt,
		LastJobID:   "job-1",
	}
}

func TestMemDeliveryRepo_UpsertReplacesSameKey(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := testDelivery("ORD-1", base)
	require.NoError(t, repo.Upsert(ctx, first))

	update := testDelivery("ORD-1", base.Add(time.Minute))
	update.Status = model.DeliveryStatusCancelled
	update.LastJobID = "job-2"
	require.NoError(t, repo.Upsert(ctx, update))

	page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, model.DeliveryStatusCancelled, page.Data[0].Status)
	assert.Equal(t, "job-2", page.Data[0].LastJobID)
	assert.Equal(t, first.ID, page.Data[0].ID)
}

func TestMemDeliveryRepo_UpsertIgnoresStaleWrite(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	current := testDelivery("ORD-1", base)
	require.NoError(t, repo.Upsert(ctx, current))

	stale := testDelivery("ORD-1", base.Add(-time.Hour))
	stale.Status = model.DeliveryStatusPending
	require.NoError(t, repo.Upsert(ctx, stale))

	page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, model.DeliveryStatusDelivered, page.Data[0].Status)
	assert.Equal(t, base, page.Data[0].IngestedAt)
}

func TestMemDeliveryRepo_UpsertEqualTimestampBreaksOnJobOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	older := newQueuedJob("job-older")
	newer := newQueuedJob("job-newer")
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	jobs := data.NewMemJobRepo()
	require.NoError(t, jobs.Create(ctx, older))
	require.NoError(t, jobs.Create(ctx, newer))

	ingested := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, order := range map[string][]string{
		"older job arrives last": {"job-newer", "job-older"},
		"newer job arrives last": {"job-older", "job-newer"},
	} {
		t.Run(name, func(t *testing.T) {
			repo := data.NewMemDeliveryRepo()
			repo.SetJobResolver(jobs)

			for _, jobID := range order {
				d := testDelivery("ORD-1", ingested)
				d.LastJobID = jobID
				if jobID == "job-older" {
					d.Status = model.DeliveryStatusPending
				}
				require.NoError(t, repo.Upsert(ctx, d))
			}

			page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
			require.NoError(t, err)
			require.Equal(t, 1, page.TotalCount)
			assert.Equal(t, "job-newer", page.Data[0].LastJobID)
			assert.Equal(t, model.DeliveryStatusDelivered, page.Data[0].Status)
		})
	}
}

func TestMemDeliveryRepo_QueryFilters(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	delivered := testDelivery("ORD-1", base)
	require.NoError(t, repo.Upsert(ctx, delivered))

	pending := testDelivery("ORD-2", base.Add(time.Second))
	pending.Status = model.DeliveryStatusPending
	pending.Score = 2.0
	pending.Signed = false
	require.NoError(t, repo.Upsert(ctx, pending))

	otherSite := testDelivery("ORD-3", base.Add(2*time.Second))
	otherSite.SiteID = "site-2"
	otherSite.ID = model.DeliveryID("site-2", "partner_a", "ORD-3")
	otherSite.LastJobID = "job-9"
	require.NoError(t, repo.Upsert(ctx, otherSite))

	siteID := "site-1"
	page, err := repo.Query(ctx, model.DeliveryListOptions{SiteID: &siteID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)

	status := model.DeliveryStatusPending
	page, err = repo.Query(ctx, model.DeliveryListOptions{Status: &status, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "ORD-2", page.Data[0].ExternalID)

	minScore := 3.0
	page, err = repo.Query(ctx, model.DeliveryListOptions{MinScore: &minScore, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)

	jobID := "job-9"
	page, err = repo.Query(ctx, model.DeliveryListOptions{JobID: &jobID, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "ORD-3", page.Data[0].ExternalID)
}

func TestMemDeliveryRepo_QueryOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		require.NoError(t, repo.Upsert(ctx, testDelivery(
			fmt.Sprintf("ORD-%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)
	for i := 1; i < len(page.Data); i++ {
		assert.False(t, page.Data[i].IngestedAt.After(page.Data[i-1].IngestedAt))
	}
}

func TestMemDeliveryRepo_PaginationIsStable(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	const total = 10
	for i := range total {
		require.NoError(t, repo.Upsert(ctx, testDelivery(
			fmt.Sprintf("ORD-%02d", i), base.Add(time.Duration(i)*time.Second))))
	}

	seen := map[string]struct{}{}
	for offset := 0; offset < total; offset += 4 {
		page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 4, Offset: offset})
		require.NoError(t, err)
		assert.Equal(t, total, page.TotalCount)
		for _, d := range page.Data {
			_, dup := seen[d.ID]
			assert.False(t, dup, "delivery %s returned twice across pages", d.ExternalID)
			seen[d.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, total)
}

func TestMemDeliveryRepo_OffsetBeyondEnd(t *testing.T) {
	t.Parallel()

	repo := data.NewMemDeliveryRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, testDelivery("ORD-1", time.Now().UTC())))

	page, err := repo.Query(ctx, model.DeliveryListOptions{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
	assert.Empty(t, page.Data)
}
