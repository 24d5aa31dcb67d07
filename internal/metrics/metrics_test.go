package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
)

var _ job.Recorder = (*Collector)(nil)

func TestCollectorRecordsPass(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	c.RecordPass("partial", domain.SyncStats{
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Saved:      7,
		Deleted:    2,
		Sources:    map[domain.Source]int{domain.SourceAdzuna: 5, domain.SourceArbeitsagentur: 2},
	})
	c.RecordSkipped()
	c.RecordSourceError(domain.SourceArbeitsagentur)
	c.RecordChunkFailure("delete")
	c.SetStoredJobs(200)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("skipped")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.fetched.WithLabelValues("adzuna")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sourceErrors.WithLabelValues("arbeitsagentur")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.chunkFailures.WithLabelValues("delete")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.saved))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.evicted))
	assert.Equal(t, 200.0, testutil.ToFloat64(c.storedJobs))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordPass("ok", domain.SyncStats{})
		c.RecordSkipped()
		c.RecordSourceError(domain.SourceAdzuna)
		c.RecordChunkFailure("upsert")
		c.SetStoredJobs(1)
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.SetStoredJobs(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobsync_stored_jobs 3")
}
