package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/domain/scoring"
)

func TestScore_DefaultWeights(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		status   model.DeliveryStatus
		signed   bool
		warnings []string
		want     float64
	}{
		{name: "delivered and signed", status: model.DeliveryStatusDelivered, signed: true, want: 5.0},
		{name: "delivered unsigned", status: model.DeliveryStatusDelivered, want: 3.0},
		{name: "pending unsigned", status: model.DeliveryStatusPending, want: 2.0},
		{name: "pending signed", status: model.DeliveryStatusPending, signed: true, want: 4.0},
		{name: "cancelled unsigned", status: model.DeliveryStatusCancelled, want: 1.0},
		{
			name:     "delivered signed with one warning",
			status:   model.DeliveryStatusDelivered,
			signed:   true,
			warnings: []string{"signed flag missing; defaulted to false"},
			want:     4.75,
		},
	}

	engine := scoring.MustNewEngine(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := &model.Delivery{Status: tc.status, Signed: tc.signed, Warnings: tc.warnings}
			assert.InDelta(t, tc.want, engine.Score(d), 1e-9)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	engine := scoring.MustNewEngine(nil)
	d := &model.Delivery{Status: model.DeliveryStatusDelivered, Signed: true}
	first := engine.Score(d)
	for range 10 {
		assert.Equal(t, first, engine.Score(d))
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	engine := scoring.MustNewEngine(nil)

	worst := &model.Delivery{
		Status:   model.DeliveryStatusCancelled,
		Warnings: []string{"a", "b", "c", "d", "e"},
	}
	best := &model.Delivery{Status: model.DeliveryStatusDelivered, Signed: true}

	assert.GreaterOrEqual(t, engine.Score(worst), 0.0)
	assert.LessOrEqual(t, engine.Score(best), scoring.MaxScore)
}

func TestScore_NilDelivery(t *testing.T) {
	t.Parallel()

	engine := scoring.MustNewEngine(nil)
	assert.Zero(t, engine.Score(nil))
}

func TestScore_ZeroWeightTotal(t *testing.T) {
	t.Parallel()

	engine, err := scoring.NewEngine(map[string]float64{
		scoring.CriterionCompleteness: 0,
		scoring.CriterionDelivered:    0,
		scoring.CriterionSigned:       0,
	})
	require.NoError(t, err)

	d := &model.Delivery{Status: model.DeliveryStatusDelivered, Signed: true}
	assert.Zero(t, engine.Score(d))
}

func TestScore_CustomWeights(t *testing.T) {
	t.Parallel()

	engine, err := scoring.NewEngine(map[string]float64{
		scoring.CriterionDelivered: 1,
	})
	require.NoError(t, err)

	delivered := &model.Delivery{Status: model.DeliveryStatusDelivered}
	pending := &model.Delivery{Status: model.DeliveryStatusPending}
	assert.InDelta(t, 5.0, engine.Score(delivered), 1e-9)
	assert.InDelta(t, 2.5, engine.Score(pending), 1e-9)
}

func TestNewEngine_RejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := scoring.NewEngine(map[string]float64{"charisma": 1})
	require.Error(t, err)

	_, err = scoring.NewEngine(map[string]float64{scoring.CriterionSigned: -1})
	require.Error(t, err)
}
