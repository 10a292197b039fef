package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/krishnx/vestigas/internal/errors"
)

type recordedMetric struct {
	name  string
	value int64
	tags  map[string]string
}

type fakeSink struct {
	counts  []recordedMetric
	timings []recordedMetric
}

func (s *fakeSink) Count(name string, value int64, tags map[string]string) {
	s.counts = append(s.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (s *fakeSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.timings = append(s.timings, recordedMetric{name: name, value: int64(value), tags: tags})
}

func TestEmitJobFinished(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	EmitJobFinished(sink, JobMetric{Status: "partial", Duration: 2 * time.Second})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "job.finished", sink.counts[0].name)
	assert.Equal(t, "partial", sink.counts[0].tags["status"])

	require.Len(t, sink.timings, 1)
	assert.Equal(t, "job.duration", sink.timings[0].name)
}

func TestEmitJobFinished_NoDuration(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	EmitJobFinished(sink, JobMetric{Status: "failed"})

	require.Len(t, sink.counts, 1)
	assert.Empty(t, sink.timings)
}

func TestEmitPartnerOutcome_Success(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	EmitPartnerOutcome(sink, PartnerMetric{
		PartnerID: "partner_a",
		Attempts:  2,
		Stored:    5,
		Errors:    1,
	})

	require.Len(t, sink.counts, 3)
	fetch := sink.counts[0]
	assert.Equal(t, "partner.fetch", fetch.name)
	assert.Equal(t, ResultSuccess, fetch.tags["result"])
	assert.Equal(t, "2", fetch.tags["attempts"])
	assert.NotContains(t, fetch.tags, "error_code")

	assert.Equal(t, "deliveries.stored", sink.counts[1].name)
	assert.Equal(t, int64(5), sink.counts[1].value)
	assert.Equal(t, "deliveries.errors", sink.counts[2].name)
	assert.Equal(t, int64(1), sink.counts[2].value)
}

func TestEmitPartnerOutcome_Failure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	EmitPartnerOutcome(sink, PartnerMetric{
		PartnerID: "partner_b",
		Attempts:  3,
		Err:       apperrors.Transient("upstream returned 503", nil),
	})

	require.Len(t, sink.counts, 1)
	fetch := sink.counts[0]
	assert.Equal(t, ResultError, fetch.tags["result"])
	assert.Equal(t, "transient", fetch.tags["error_code"])
}

func TestEmitHandlesNilSink(t *testing.T) {
	t.Parallel()

	EmitJobFinished(nil, JobMetric{Status: "completed"})
	EmitPartnerOutcome(nil, PartnerMetric{PartnerID: "partner_a"})
}
