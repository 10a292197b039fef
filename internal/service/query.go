package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/domain/scoring"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

const (
	// DefaultPageSize is used when a list request names no limit.
	DefaultPageSize = 50
	// MaxPageSize caps how many rows one page may return.
	MaxPageSize = 500
)

// DeliveryQueryServiceOptions groups dependencies for DeliveryQueryService.
type DeliveryQueryServiceOptions struct {
	Repo   core.DeliveryRepository // Required: delivery repository
	Logger *slog.Logger            // Optional: structured logger
}

// DeliveryQueryService validates delivery list filters and serves paginated
// queries over stored deliveries.
type DeliveryQueryService struct {
	repo   core.DeliveryRepository
	logger *slog.Logger
}

// NewDeliveryQueryService constructs a new DeliveryQueryService.
func NewDeliveryQueryService(opts DeliveryQueryServiceOptions) (*DeliveryQueryService, error) {
	if opts.Repo == nil {
		return nil, errors.New("DeliveryRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryQueryService{
		repo:   opts.Repo,
		logger: logger.With("component", "delivery_query"),
	}, nil
}

// List returns one page of deliveries matching the given filters. Callers
// must resolve a concrete limit first; zero is rejected rather than
// defaulted so an explicit limit=0 surfaces as a validation error.
func (s *DeliveryQueryService) List(ctx context.Context, opts model.DeliveryListOptions) (*model.DeliveryPage, error) {
	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	page, err := s.repo.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return page, nil
}

func validateListOptions(opts model.DeliveryListOptions) error {
	if opts.Limit <= 0 {
		return apperrors.ValidationField("limit", "must be greater than zero")
	}
	if opts.Limit > MaxPageSize {
		return apperrors.ValidationField("limit",
			fmt.Sprintf("must not exceed %d", MaxPageSize))
	}
	if opts.Offset < 0 {
		return apperrors.ValidationField("offset", "must not be negative")
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return apperrors.ValidationField("status",
			fmt.Sprintf("unknown delivery status %q", *opts.Status))
	}
	if opts.MinScore != nil && (*opts.MinScore < 0 || *opts.MinScore > scoring.MaxScore) {
		return apperrors.ValidationField("min_score",
			fmt.Sprintf("must be between 0 and %g", scoring.MaxScore))
	}
	return nil
}
