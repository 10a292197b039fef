// Package model defines the core data types used throughout the delivery
// ingestion system.
package model

import (
	"strings"
	"time"

	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// JobStatus represents the lifecycle state of an ingestion job.
type JobStatus string

const (
	// JobStatusQueued indicates a job has been accepted but not started.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates partner fetches are in flight.
	JobStatusRunning JobStatus = "running"
	// JobStatusPartial indicates at least one partner succeeded and at least one failed.
	JobStatusPartial JobStatus = "partial"
	// JobStatusCompleted indicates every configured partner succeeded.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates all partners failed or the run aborted before any completed.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusPartial, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal returns true once a job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusPartial || s == JobStatusCompleted || s == JobStatusFailed
}

// PartnerOutcome records the terminal result of one partner fetch within a job.
// Written exactly once per partner per job.
type PartnerOutcome struct {
	// Succeeded is true when the fetch succeeded and at least one record
	// survived ingestion. An empty feed succeeds vacuously.
	Succeeded bool `json:"succeeded"`
	// RecordCount is the number of raw records the partner returned.
	RecordCount int `json:"record_count"`
	// StoredCount is the number of records that normalized, scored and stored cleanly.
	StoredCount int `json:"stored_count"`
	// ErrorCount is the number of per-record normalization or storage failures.
	ErrorCount int `json:"error_count"`
	// Error describes the fetch failure when Succeeded is false.
	Error *string `json:"error,omitempty"`
}

// Job represents one ingestion request for a (site, date) pair and its
// execution record. Jobs are retained indefinitely for later status queries.
type Job struct {
	ID     string    `json:"id"      db:"id"`
	SiteID string    `json:"site_id" db:"site_id"`
	Date   string    `json:"date"    db:"date"`
	Status JobStatus `json:"status"  db:"status"`
	// PartnerOutcomes maps partner ID to its terminal fetch outcome. It has
	// exactly one entry per configured partner once Status leaves running.
	PartnerOutcomes map[string]PartnerOutcome `json:"partner_outcomes" db:"partner_outcomes"`
	// Error summarizes the failure when Status is failed.
	Error      *string    `json:"error,omitempty"       db:"error"`
	CreatedAt  time.Time  `json:"created_at"            db:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"  db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// CreateJobRequest represents a request to start a new ingestion job.
type CreateJobRequest struct {
	SiteID string `json:"siteId"`
	Date   string `json:"date"`
}

// DateLayout is the calendar date format accepted for ingestion requests.
const DateLayout = "2006-01-02"

// Validate checks the request fields, returning a validation error on bad input.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.SiteID) == "" {
		return apperrors.ValidationField("siteId", "siteId is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return apperrors.ValidationField("date", "date must be a valid calendar date in YYYY-MM-DD format")
	}
	return nil
}

// JobResults groups the deliveries written by a job with its partner outcomes.
type JobResults struct {
	JobID           string                    `json:"job_id"`
	Status          JobStatus                 `json:"status"`
	TotalCount      int                       `json:"total_count"`
	Deliveries      []Delivery                `json:"deliveries"`
	PartnerOutcomes map[string]PartnerOutcome `json:"partner_outcomes"`
}
