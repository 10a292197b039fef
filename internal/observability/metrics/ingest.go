// Package metrics emits StatsD metrics for the ingestion pipeline.
package metrics

import (
	"strconv"
	"time"

	apperrors "github.com/krishnx/vestigas/internal/errors"
	"github.com/krishnx/vestigas/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// JobMetric captures one finished ingestion job for metric emission.
type JobMetric struct {
	Status   string
	Duration time.Duration
}

// EmitJobFinished records a job reaching a terminal status, with its total
// pipeline duration.
func EmitJobFinished(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"status": in.Status}
	sink.Count("job.finished", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, tags)
	}
}

// PartnerMetric captures the terminal outcome of one partner fetch plus the
// per-record counts of the normalize/score/store stage.
type PartnerMetric struct {
	PartnerID string
	Attempts  int
	Stored    int
	Errors    int
	Err       error
}

// EmitPartnerOutcome records one partner's contribution to a job.
func EmitPartnerOutcome(sink statsd.Sink, in PartnerMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	tags := map[string]string{
		"partner":  in.PartnerID,
		"attempts": strconv.Itoa(in.Attempts),
	}
	if in.Err != nil {
		result = ResultError
		tags["error_code"] = string(apperrors.GetCode(in.Err))
	}
	tags["result"] = result

	sink.Count("partner.fetch", 1, tags)

	recordTags := map[string]string{"partner": in.PartnerID}
	if in.Stored > 0 {
		sink.Count("deliveries.stored", int64(in.Stored), recordTags)
	}
	if in.Errors > 0 {
		sink.Count("deliveries.errors", int64(in.Errors), recordTags)
	}
}
