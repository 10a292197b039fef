// Package scoring computes the quality/confidence score of a canonical
// Delivery from weighted, configurable criteria.
package scoring

import (
	"fmt"
	"sort"

	"github.com/krishnx/vestigas/internal/domain/model"
)

// Recognized criterion names.
const (
	// CriterionCompleteness rewards records that normalized without defaulted fields.
	CriterionCompleteness = "completeness"
	// CriterionDelivered rewards a consistent, terminal domain status.
	CriterionDelivered = "delivered"
	// CriterionSigned rewards a recorded proof of delivery.
	CriterionSigned = "signed"
)

// MaxScore bounds the score range [0, MaxScore].
const MaxScore = 5.0

// warningPenalty is the completeness deduction per normalization warning.
const warningPenalty = 0.25

// DefaultWeights mirror the historical formula where delivery confirmation
// and a signature dominate the score.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		CriterionCompleteness: 1.0,
		CriterionDelivered:    2.0,
		CriterionSigned:       2.0,
	}
}

// Engine scores deliveries. Score is a pure, deterministic function of the
// delivery: no clock, no I/O, no call-order dependence. That property is what
// makes re-ingestion idempotent.
type Engine struct {
	weights map[string]float64
	total   float64
}

// NewEngine validates the weight map and constructs an Engine. Unknown
// criterion names and negative weights are rejected.
func NewEngine(weights map[string]float64) (*Engine, error) {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	e := &Engine{weights: make(map[string]float64, len(weights))}
	for name, w := range weights {
		switch name {
		case CriterionCompleteness, CriterionDelivered, CriterionSigned:
		default:
			return nil, fmt.Errorf("unknown scoring criterion %q", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("scoring criterion %q has negative weight %v", name, w)
		}
		e.weights[name] = w
		e.total += w
	}
	return e, nil
}

// MustNewEngine is like NewEngine but panics on error. Intended for the
// default weight set.
func MustNewEngine(weights map[string]float64) *Engine {
	e, err := NewEngine(weights)
	if err != nil {
		panic(err)
	}
	return e
}

// Criteria returns the configured criterion names in stable order.
func (e *Engine) Criteria() []string {
	out := make([]string, 0, len(e.weights))
	for name := range e.weights {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Score computes the weighted score in [0, MaxScore]. A zero weight total
// yields zero.
func (e *Engine) Score(d *model.Delivery) float64 {
	if d == nil || e.total == 0 {
		return 0
	}
	var sum float64
	for name, w := range e.weights {
		sum += w * subScore(name, d)
	}
	score := MaxScore * sum / e.total
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// subScore returns the criterion value in [0, 1]. Missing optional fields
// reduce the completeness sub-score but never fail scoring.
func subScore(criterion string, d *model.Delivery) float64 {
	switch criterion {
	case CriterionCompleteness:
		penalty := warningPenalty * float64(len(d.Warnings))
		if penalty >= 1 {
			return 0
		}
		return 1 - penalty
	case CriterionDelivered:
		switch d.Status {
		case model.DeliveryStatusDelivered:
			return 1
		case model.DeliveryStatusPending:
			return 0.5
		default:
			return 0
		}
	case CriterionSigned:
		if d.Signed {
			return 1
		}
		return 0
	}
	return 0
}
