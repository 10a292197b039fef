// Package httpx provides the HTTP handlers and router for the delivery
// ingestion API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/krishnx/vestigas/internal/domain/model"
	"github.com/krishnx/vestigas/internal/service"
)

// JobHandlers provides HTTP handlers for fetch-job operations.
type JobHandlers struct {
	Svc *service.IngestService
}

// jobAcceptedResponse is the body returned when a fetch job is enqueued.
type jobAcceptedResponse struct {
	JobID   string          `json:"jobId"`
	Status  model.JobStatus `json:"status"`
	SiteID  string          `json:"siteId"`
	Date    string          `json:"date"`
	Message string          `json:"message"`
}

// CreateFetchJob enqueues a new ingestion job and returns it immediately with
// 202 Accepted; the pipeline runs in the background.
func (h *JobHandlers) CreateFetchJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.CreateJob(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, jobAcceptedResponse{
		JobID:   job.ID,
		Status:  job.Status,
		SiteID:  job.SiteID,
		Date:    job.Date,
		Message: "fetch job accepted",
	})
}

// GetJob returns the current status of a job.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path",
			Err: errors.New("job id is required"),
		})
		return
	}

	job, err := h.Svc.GetStatus(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// GetJobResults returns one page of the deliveries a job stored. Jobs still
// running return an empty result set with their current status.
func (h *JobHandlers) GetJobResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_path",
			Err: errors.New("job id is required"),
		})
		return
	}

	limit, err := parseIntQueryStrict(r, "limit", service.DefaultPageSize)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	offset, err := parseIntQueryStrict(r, "offset", 0)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	results, err := h.Svc.GetResults(r.Context(), id, limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, results)
}
