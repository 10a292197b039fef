// Package service contains the business logic for delivery ingestion: fetch
// coordination across partner feeds, job orchestration, and delivery queries.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krishnx/vestigas/internal/core"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

const (
	defaultFetchTimeout     = 5 * time.Second
	defaultFetchMaxAttempts = 3
	defaultFetchBackoffBase = time.Second
)

// FetchConfig tunes per-partner fetch behaviour.
type FetchConfig struct {
	// Timeout bounds each fetch attempt. Defaults to 5s.
	Timeout time.Duration
	// MaxAttempts caps attempts per partner, including the first. Defaults to 3.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles per attempt
	// with jitter. Defaults to 1s.
	BackoffBase time.Duration
}

// FetchServiceOptions groups dependencies for FetchService.
type FetchServiceOptions struct {
	Clients []core.PartnerClient // One client per partner feed; may be empty
	Config  FetchConfig
	Logger  *slog.Logger // Optional: structured logger
}

// PartnerFetchResult is the terminal outcome of fetching one partner feed,
// after retries are exhausted or a permanent failure is hit.
type PartnerFetchResult struct {
	PartnerID string
	Records   []json.RawMessage
	Err       error
	Attempts  int
}

// FetchService fans a fetch request out to every configured partner feed,
// retrying transient failures with exponential backoff and jitter. One
// partner failing never interrupts the others.
type FetchService struct {
	clients []core.PartnerClient
	cfg     FetchConfig
	logger  *slog.Logger
	rng     *rand.Rand
	rngMu   sync.Mutex
}

// NewFetchService constructs a new FetchService.
func NewFetchService(opts FetchServiceOptions) (*FetchService, error) {
	// An empty client set is legal; FetchAll then returns no results and a
	// job completes vacuously.
	seen := make(map[string]struct{}, len(opts.Clients))
	for _, c := range opts.Clients {
		if c == nil {
			return nil, errors.New("PartnerClient must not be nil")
		}
		if _, dup := seen[c.ID()]; dup {
			return nil, errors.New("duplicate partner client: " + c.ID())
		}
		seen[c.ID()] = struct{}{}
	}

	cfg := opts.Config
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultFetchMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultFetchBackoffBase
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FetchService{
		clients: opts.Clients,
		cfg:     cfg,
		logger:  logger.With("component", "fetch"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Partners returns the IDs of all configured partner feeds.
func (s *FetchService) Partners() []string {
	ids := make([]string, 0, len(s.clients))
	for _, c := range s.clients {
		ids = append(ids, c.ID())
	}
	return ids
}

// FetchAll fetches every partner feed concurrently for the given site and
// day. It always waits for all partners and returns one result per partner;
// per-partner failures are reported in the result, not as an error. The
// returned error is non-nil only when the parent context is cancelled.
func (s *FetchService) FetchAll(ctx context.Context, siteID, date string) ([]PartnerFetchResult, error) {
	results := make([]PartnerFetchResult, len(s.clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range s.clients {
		g.Go(func() error {
			results[i] = s.fetchWithRetry(gctx, client, siteID, date)
			return nil
		})
	}
	// Workers never return errors, so Wait only propagates a panic-free nil.
	_ = g.Wait()

	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

func (s *FetchService) fetchWithRetry(ctx context.Context, client core.PartnerClient, siteID, date string) PartnerFetchResult {
	result := PartnerFetchResult{PartnerID: client.ID()}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		result.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		records, err := client.Fetch(attemptCtx, siteID, date)
		cancel()

		if err == nil {
			result.Records = records
			result.Err = nil
			return result
		}
		result.Err = err

		if ctx.Err() != nil {
			result.Err = apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled,
				"fetch "+client.ID()+" aborted")
			return result
		}
		if !apperrors.IsTransient(err) {
			return result
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}

		delay := s.backoff(attempt)
		s.logger.WarnContext(ctx, "partner fetch failed, retrying",
			"partner", client.ID(),
			"attempt", attempt,
			"delay", delay,
			"err", err)

		select {
		case <-ctx.Done():
			result.Err = apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled,
				"fetch "+client.ID()+" aborted")
			return result
		case <-time.After(delay):
		}
	}

	s.logger.ErrorContext(ctx, "partner fetch exhausted retries",
		"partner", client.ID(),
		"attempts", result.Attempts,
		"err", result.Err)
	return result
}

// backoff returns base * 2^(attempt-1) with up to 25% random jitter.
func (s *FetchService) backoff(attempt int) time.Duration {
	delay := s.cfg.BackoffBase << uint(attempt-1)

	s.rngMu.Lock()
	jitter := time.Duration(s.rng.Int63n(int64(delay)/4 + 1))
	s.rngMu.Unlock()

	return delay + jitter
}
