package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	assert.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.Registry())

	// Two collectors must not clash on registration.
	assert.NotPanics(t, func() { NewCollector() })
}

func TestCollector_Records(t *testing.T) {
	c := NewCollector()

	c.RecordFetchAttempt(false)
	c.RecordFetchAttempt(false)
	c.RecordFetchAttempt(true)
	c.RecordTrack("success")
	c.RecordTrack("failed")
	c.RecordBatch("completed", 3*time.Second)
	c.RecordAssembly(200*time.Millisecond, 4096)
	c.SetActiveWorkspaces(2)

	out := scrape(t, c)
	assert.Contains(t, out, `tunefetch_fetch_attempts_total{result="failed"} 2`)
	assert.Contains(t, out, `tunefetch_fetch_attempts_total{result="succeeded"} 1`)
	assert.Contains(t, out, `tunefetch_tracks_total{status="success"} 1`)
	assert.Contains(t, out, `tunefetch_batches_total{status="completed"} 1`)
	assert.Contains(t, out, `tunefetch_archive_bytes_total 4096`)
	assert.Contains(t, out, `tunefetch_workspaces_active 2`)
	assert.Contains(t, out, `tunefetch_batch_duration_seconds_count 1`)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordFetchAttempt(true)
		c.RecordTrack("failed")
		c.RecordBatch("all_failed", time.Second)
		c.RecordAssembly(time.Second, 1)
		c.SetActiveWorkspaces(1)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
