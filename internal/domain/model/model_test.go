package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnx/vestigas/internal/domain/model"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

func TestDeliveryID_Deterministic(t *testing.T) {
	t.Parallel()

	first := model.DeliveryID("site-1", "partner_a", "ORD-1")
	second := model.DeliveryID("site-1", "partner_a", "ORD-1")
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestDeliveryID_DistinguishesKeyParts(t *testing.T) {
	t.Parallel()

	base := model.DeliveryID("site-1", "partner_a", "ORD-1")
	assert.NotEqual(t, base, model.DeliveryID("site-2", "partner_a", "ORD-1"))
	assert.NotEqual(t, base, model.DeliveryID("site-1", "partner_b", "ORD-1"))
	assert.NotEqual(t, base, model.DeliveryID("site-1", "partner_a", "ORD-2"))

	// Key parts must not bleed into each other across the separator.
	assert.NotEqual(t,
		model.DeliveryID("site-1x", "partner_a", "ORD-1"),
		model.DeliveryID("site-1", "xpartner_a", "ORD-1"))
}

func TestCreateJobRequest_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		req     model.CreateJobRequest
		wantErr string
	}{
		{name: "valid", req: model.CreateJobRequest{SiteID: "site-1", Date: "2024-05-01"}},
		{name: "missing site", req: model.CreateJobRequest{Date: "2024-05-01"}, wantErr: "siteId"},
		{name: "blank site", req: model.CreateJobRequest{SiteID: "  ", Date: "2024-05-01"}, wantErr: "siteId"},
		{name: "missing date", req: model.CreateJobRequest{SiteID: "site-1"}, wantErr: "date"},
		{name: "bad format", req: model.CreateJobRequest{SiteID: "site-1", Date: "01-05-2024"}, wantErr: "date"},
		{name: "impossible date", req: model.CreateJobRequest{SiteID: "site-1", Date: "2024-02-30"}, wantErr: "date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tc.wantErr, apperrors.GetField(err))
		})
	}
}

func TestJobStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []model.JobStatus{
		model.JobStatusQueued, model.JobStatusRunning,
		model.JobStatusPartial, model.JobStatusCompleted, model.JobStatusFailed,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, model.JobStatus("paused").Valid())

	assert.False(t, model.JobStatusQueued.Terminal())
	assert.False(t, model.JobStatusRunning.Terminal())
	assert.True(t, model.JobStatusPartial.Terminal())
	assert.True(t, model.JobStatusCompleted.Terminal())
	assert.True(t, model.JobStatusFailed.Terminal())
}

func TestDeliveryStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []model.DeliveryStatus{
		model.DeliveryStatusDelivered, model.DeliveryStatusPending, model.DeliveryStatusCancelled,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, model.DeliveryStatus("lost").Valid())
}
