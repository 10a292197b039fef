// Package partner provides HTTP clients for the external partner delivery
// feeds. Each client fetches the raw delivery records one partner reports for
// a site and day; normalization is left to the caller.
package partner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/krishnx/vestigas/internal/core"
	apperrors "github.com/krishnx/vestigas/internal/errors"
)

const defaultTimeout = 5 * time.Second

// maxResponseBytes caps feed responses so a misbehaving partner cannot
// exhaust memory.
const maxResponseBytes = 16 << 20

// ClientOptions configures an HTTPClient.
type ClientOptions struct {
	// PartnerID identifies the partner this client talks to, e.g. "partner_a".
	PartnerID string
	// BaseURL is the feed endpoint. SiteID and date are passed as query
	// parameters.
	BaseURL string
	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client
	// Timeout bounds a single fetch attempt. Defaults to 5s. Ignored when
	// HTTPClient is set.
	Timeout time.Duration
}

// HTTPClient fetches raw delivery records from one partner feed over HTTP.
type HTTPClient struct {
	partnerID string
	baseURL   string
	client    *http.Client
}

// NewHTTPClient creates a partner feed client from the given options.
func NewHTTPClient(opts ClientOptions) (*HTTPClient, error) {
	if opts.PartnerID == "" {
		return nil, errors.New("partner id is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPClient{
		partnerID: opts.PartnerID,
		baseURL:   opts.BaseURL,
		client:    client,
	}, nil
}

// ID returns the partner identifier this client fetches for.
func (c *HTTPClient) ID() string {
	return c.partnerID
}

// Fetch performs a single GET against the partner feed and returns the raw
// records. Network failures, timeouts and 5xx responses come back as
// transient errors so the caller can retry; 4xx responses are permanent.
func (c *HTTPClient) Fetch(ctx context.Context, siteID, date string) ([]json.RawMessage, error) {
	endpoint, err := c.buildURL(siteID, date)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build partner request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(c.partnerID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transient(
			fmt.Sprintf("partner %s: read response body", c.partnerID), err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, apperrors.Transient(
			fmt.Sprintf("partner %s: upstream returned %d", c.partnerID, resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, apperrors.Internalf(
			"partner %s: upstream rejected request with %d", c.partnerID, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Internalf(
			"partner %s: unexpected status %d", c.partnerID, resp.StatusCode)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, apperrors.Internalf("partner %s: decode feed: %v", c.partnerID, err)
	}
	return records, nil
}

func (c *HTTPClient) buildURL(siteID, date string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("siteId", siteID)
	q.Set("date", date)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyTransportError(partnerID string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled,
			fmt.Sprintf("partner %s: fetch canceled", partnerID))
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Transient(
			fmt.Sprintf("partner %s: fetch timed out", partnerID), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Transient(
			fmt.Sprintf("partner %s: fetch timed out", partnerID), err)
	}
	return apperrors.Transient(
		fmt.Sprintf("partner %s: fetch failed", partnerID), err)
}

var _ core.PartnerClient = (*HTTPClient)(nil)
