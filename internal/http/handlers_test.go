package httpx_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/krishnx/vestigas/internal/core"
	"github.com/krishnx/vestigas/internal/data"
	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/domain/normalize"
	"github.com/krishnx/vestigas/internal/domain/scoring"
	httpx "github.com/krishnx/vestigas/internal/http"
	"github.com/krishnx/vestigas/internal/mocks"
	"github.com/krishnx/vestigas/internal/service"
)

// apiFixture wires the full router over in-memory repositories and mocked
// partner feeds so handler tests exercise the real service stack.
type apiFixture struct {
	handler    http.Handler
	ingest     *service.IngestService
	deliveries *data.MemDeliveryRepo
}

func newAPIFixture(t *testing.T, clients ...core.PartnerClient) *apiFixture {
	t.Helper()

	fetcher, err := service.NewFetchService(service.FetchServiceOptions{
		Clients: clients,
		Config:  service.FetchConfig{MaxAttempts: 1},
	})
	require.NoError(t, err)

	deliveries := data.NewMemDeliveryRepo()
	ingest, err := service.NewIngestService(service.IngestServiceOptions{
		Deps: service.IngestDeps{
			Jobs:       data.NewMemJobRepo(),
			Deliveries: deliveries,
			Fetcher:    fetcher,
			Normalizer: normalize.DefaultEngine(),
			Scorer:     scoring.MustNewEngine(nil),
			Cache:      data.NewMemCacheRepo(),
		},
	})
	require.NoError(t, err)

	query, err := service.NewDeliveryQueryService(service.DeliveryQueryServiceOptions{Repo: deliveries})
	require.NoError(t, err)

	return &apiFixture{
		handler: httpx.NewRouter(httpx.RouterServices{
			Ingest:     ingest,
			Deliveries: query,
		}),
		ingest:     ingest,
		deliveries: deliveries,
	}
}

func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func feedClient(ctrl *gomock.Controller, n int) *mocks.MockPartnerClient {
	client := mocks.NewMockPartnerClient(ctrl)
	client.EXPECT().ID().Return(normalize.PartnerA).AnyTimes()
	records := make([]json.RawMessage, 0, n)
	for i := range n {
		records = append(records, json.RawMessage(fmt.Sprintf(
			`{"order_id":"ORD-%d","site_id":"site-1","deliveryStatus":"delivered","podSigned":true,"deliveryTime":"2024-05-01T10:%02d:00Z"}`,
			i, i)))
	}
	client.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(records, nil).AnyTimes()
	return client
}

func TestCreateFetchJob(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAPIFixture(t, feedClient(ctrl, 2))
	rec := f.do(t, http.MethodPost, "/fetch", `{"siteId":"site-1","date":"2024-05-01"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[map[string]any](t, rec)
	assert.NotEmpty(t, body["jobId"])
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, "site-1", body["siteId"])
	assert.Equal(t, "2024-05-01", body["date"])
	assert.Equal(t, "fetch job accepted", body["message"])

	f.ingest.Wait()
}

func TestCreateFetchJob_BadRequests(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"site_id":`},
		{"unknown field", `{"siteId":"site-1","date":"2024-05-01","bogus":true}`},
		{"missing site", `{"date":"2024-05-01"}`},
		{"bad date", `{"siteId":"site-1","date":"May 1st"}`},
		{"impossible date", `{"siteId":"site-1","date":"2024-02-30"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAPIFixture(t)
			rec := f.do(t, http.MethodPost, "/fetch", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())

			body := decodeBody[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestGetJob(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAPIFixture(t, feedClient(ctrl, 2))
	rec := f.do(t, http.MethodPost, "/fetch", `{"siteId":"site-1","date":"2024-05-01"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decodeBody[map[string]any](t, rec)["jobId"].(string)

	f.ingest.Wait()

	rec = f.do(t, http.MethodGet, "/jobs/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	job := decodeBody[model.Job](t, rec)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Contains(t, job.PartnerOutcomes, normalize.PartnerA)
}

func TestGetJob_NotFound(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "not_found", body["error"])
}

func TestGetJobResults(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAPIFixture(t, feedClient(ctrl, 3))
	rec := f.do(t, http.MethodPost, "/fetch", `{"siteId":"site-1","date":"2024-05-01"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := decodeBody[map[string]any](t, rec)["jobId"].(string)

	f.ingest.Wait()

	rec = f.do(t, http.MethodGet, "/jobs/"+jobID+"/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody[model.JobResults](t, rec)
	assert.Equal(t, model.JobStatusCompleted, results.Status)
	assert.Equal(t, 3, results.TotalCount)
	assert.Len(t, results.Deliveries, 3)

	// Explicit limit=0 is a client error, not the default page size.
	rec = f.do(t, http.MethodGet, "/jobs/"+jobID+"/results?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/jobs/"+jobID+"/results?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/jobs/"+jobID+"/results?limit=2&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results = decodeBody[model.JobResults](t, rec)
	assert.Equal(t, 3, results.TotalCount)
	assert.Len(t, results.Deliveries, 1)
}

func TestListDeliveries(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAPIFixture(t, feedClient(ctrl, 4))
	rec := f.do(t, http.MethodPost, "/fetch", `{"siteId":"site-1","date":"2024-05-01"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	f.ingest.Wait()

	rec = f.do(t, http.MethodGet, "/deliveries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[model.DeliveryPage](t, rec)
	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, service.DefaultPageSize, page.Limit)
	assert.Len(t, page.Data, 4)

	rec = f.do(t, http.MethodGet, "/deliveries?siteId=site-1&status=delivered&min_score=4.5&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[model.DeliveryPage](t, rec)
	assert.Equal(t, 4, page.TotalCount)
	assert.Len(t, page.Data, 2)

	rec = f.do(t, http.MethodGet, "/deliveries?siteId=other", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody[model.DeliveryPage](t, rec)
	assert.Zero(t, page.TotalCount)
	assert.Empty(t, page.Data)
}

func TestListDeliveries_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		target string
	}{
		{"zero limit", "/deliveries?limit=0"},
		{"negative offset", "/deliveries?offset=-1"},
		{"malformed limit", "/deliveries?limit=ten"},
		{"unknown status", "/deliveries?status=teleported"},
		{"min score out of range", "/deliveries?min_score=9"},
		{"malformed min score", "/deliveries?min_score=high"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAPIFixture(t)
			rec := f.do(t, http.MethodGet, tc.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	for _, target := range []string{"/health", "/healthz"} {
		rec := f.do(t, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[map[string]string](t, rec)
		assert.Equal(t, "ok", body["status"])
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
